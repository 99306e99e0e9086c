package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"hopper/internal/history"
	"hopper/internal/media"
	"hopper/internal/testsupport"
)

func TestSessionAndOutcomeRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	if store == nil {
		t.Fatal("expected history store to be enabled in test config")
	}

	ctx := context.Background()
	sessionID, err := store.BeginSession(ctx, "20260821T101500.000Z", "batch")
	if err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}
	if sessionID == 0 {
		t.Fatal("expected session ID to be assigned")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	succeeded := &media.VideoJob{
		ID:          1,
		SourcePath:  "/media/in/a.mkv",
		Destination: "/media/out/a.mkv",
		Title:       "A",
		Status:      media.StatusSucceeded,
		Options:     media.EncodeOptions{PresetProfile: "grainymovie"},
		EnqueuedAt:  now.Add(-2 * time.Minute),
		StartedAt:   now.Add(-time.Minute),
		FinishedAt:  now,
	}
	failed := &media.VideoJob{
		ID:           2,
		SourcePath:   "/media/in/b.mkv",
		Destination:  "/media/out/b.mkv",
		Title:        "B",
		Status:       media.StatusFailed,
		ErrorMessage: "disk full",
		EnqueuedAt:   now.Add(-2 * time.Minute),
		StartedAt:    now.Add(-time.Minute),
		FinishedAt:   now,
	}
	if err := store.RecordOutcome(ctx, sessionID, succeeded); err != nil {
		t.Fatalf("RecordOutcome(succeeded) failed: %v", err)
	}
	if err := store.RecordOutcome(ctx, sessionID, failed); err != nil {
		t.Fatalf("RecordOutcome(failed) failed: %v", err)
	}
	if err := store.FinishSession(ctx, sessionID, 2, 1); err != nil {
		t.Fatalf("FinishSession failed: %v", err)
	}

	outcomes, err := store.RecentOutcomes(ctx, 10)
	if err != nil {
		t.Fatalf("RecentOutcomes failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].SourcePath != "/media/in/b.mkv" {
		t.Fatalf("expected newest outcome first, got %q", outcomes[0].SourcePath)
	}
	if outcomes[0].Status != media.StatusFailed || outcomes[0].ErrorMessage != "disk full" {
		t.Fatalf("unexpected failed outcome: %#v", outcomes[0])
	}
	if outcomes[1].PresetProfile != "grainymovie" {
		t.Fatalf("expected preset profile to round trip, got %q", outcomes[1].PresetProfile)
	}
	if outcomes[1].FinishedAt.IsZero() {
		t.Fatal("expected finished timestamp to round trip")
	}

	sessions, err := store.RecentSessions(ctx, 5)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	session := sessions[0]
	if session.RunID != "20260821T101500.000Z" || session.Mode != "batch" {
		t.Fatalf("unexpected session: %#v", session)
	}
	if session.Processed != 2 || session.Failed != 1 {
		t.Fatalf("expected totals 2/1, got %d/%d", session.Processed, session.Failed)
	}
	if session.FinishedAt == nil {
		t.Fatal("expected finished session timestamp")
	}
}

func TestOpenReturnsNilStoreWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistoryDisabled())
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store != nil {
		t.Fatal("expected nil store when history disabled")
	}

	ctx := context.Background()
	id, err := store.BeginSession(ctx, "run", "batch")
	if err != nil || id != 0 {
		t.Fatalf("expected nil store BeginSession to noop, got id=%d err=%v", id, err)
	}
	if err := store.RecordOutcome(ctx, 1, &media.VideoJob{SourcePath: "/x.mkv"}); err != nil {
		t.Fatalf("expected nil store RecordOutcome to noop, got %v", err)
	}
	outcomes, err := store.RecentOutcomes(ctx, 5)
	if err != nil || outcomes != nil {
		t.Fatalf("expected nil store RecentOutcomes to noop, got %v %v", outcomes, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("expected nil store Close to noop, got %v", err)
	}
}

func TestRecordOutcomeRequiresJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if err := store.RecordOutcome(context.Background(), 1, nil); err == nil {
		t.Fatal("expected error for nil job")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
