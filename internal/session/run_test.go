package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hopper/internal/session"
	"hopper/internal/testsupport"
)

// TestRunBatchEncodesResolvedInputs exercises the full batch wiring with the
// CLI client pointed at a stub drapto binary.
func TestRunBatchEncodesResolvedInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("drapto"))
	cfg.Encoding.UseLibrary = false

	inputDir := filepath.Join(testsupport.BaseDir(cfg), "incoming")
	testsupport.WriteFile(t, filepath.Join(inputDir, "a.mkv"), 64)
	testsupport.WriteFile(t, filepath.Join(inputDir, "sub", "b.mkv"), 64)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := session.RunBatch(ctx, cfg, []string{inputDir}, session.Options{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Processed != 2 {
		t.Fatalf("Processed = %d, want 2", summary.Processed)
	}
	if len(summary.Failed) != 0 {
		t.Fatalf("Failed = %+v, want none", summary.Failed)
	}

	// Session bookkeeping lands in the log directory.
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "hopper.log")); err != nil {
		t.Fatalf("log pointer missing: %v", err)
	}

	store := testsupport.MustOpenHistory(t, cfg)
	sessions, err := store.RecentSessions(ctx, 5)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	if sessions[0].Mode != "batch" || sessions[0].Processed != 2 || sessions[0].Failed != 0 {
		t.Fatalf("session row = %+v, want batch/2/0", sessions[0])
	}
	outcomes, err := store.RecentOutcomes(ctx, 5)
	if err != nil {
		t.Fatalf("RecentOutcomes: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
}

func TestRunBatchRejectsUnmatchedInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	ctx := context.Background()
	if _, err := session.RunBatch(ctx, cfg, []string{filepath.Join(testsupport.BaseDir(cfg), "nope")}, session.Options{}); err == nil {
		t.Fatal("expected an error for an input that matches nothing")
	}
}
