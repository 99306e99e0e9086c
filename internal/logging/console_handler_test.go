package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestConsoleLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newPrettyHandler(buf, lvl, false))
}

func TestConsoleHandlerSubjectLine(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, slog.LevelInfo)

	logger.Info("encode started",
		String(FieldComponent, "encoder"),
		String(FieldWorker, "worker-1"),
		Int64(FieldJobID, 5),
		String(FieldStage, "encoding"),
	)

	out := buf.String()
	if !strings.Contains(out, "[encoder]") {
		t.Errorf("missing component tag: %q", out)
	}
	if !strings.Contains(out, "Worker-1 · Job #5 (encoding)") {
		t.Errorf("missing subject: %q", out)
	}
	if !strings.Contains(out, "– encode started") {
		t.Errorf("missing message separator: %q", out)
	}
}

func TestConsoleHandlerInfoBullets(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, slog.LevelInfo)

	logger.Info("queue finished",
		Int64(FieldJobID, 9),
		Int("processed", 3),
		Int("failed", 1),
	)

	out := buf.String()
	if !strings.Contains(out, "    - Processed: 3") {
		t.Errorf("missing processed bullet: %q", out)
	}
	if !strings.Contains(out, "    - Failed: 1") {
		t.Errorf("missing failed bullet: %q", out)
	}
	if strings.Contains(out, "    - Job:") {
		t.Errorf("job_id should render in the subject, not the bullets: %q", out)
	}
}

func TestConsoleHandlerRepeatedInfoSuppressed(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, slog.LevelInfo)

	logger.Info("progress", Int64(FieldJobID, 4), String("title", "Big Buck Bunny"))
	first := buf.String()
	buf.Reset()
	logger.Info("progress", Int64(FieldJobID, 4), String("title", "Big Buck Bunny"))
	second := buf.String()

	if !strings.Contains(first, "Big Buck Bunny") {
		t.Fatalf("first record should show title: %q", first)
	}
	if strings.Contains(second, "Big Buck Bunny") {
		t.Errorf("repeated identical field should be suppressed: %q", second)
	}
}

func TestConsoleHandlerDebugDumpsAllAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, slog.LevelDebug)

	logger.Debug("watch event",
		String("source_path", "/media/in/movie.mkv"),
		String("watch_op", "CREATE"),
	)

	out := buf.String()
	if !strings.Contains(out, "source_path: /media/in/movie.mkv") {
		t.Errorf("debug output should include raw attrs: %q", out)
	}
	if !strings.Contains(out, "watch_op: CREATE") {
		t.Errorf("debug output should include raw attrs: %q", out)
	}
}

func TestConsoleHandlerGroupsFlattened(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, slog.LevelDebug)

	logger.Debug("nested", Group("result", String("status", "ok")))

	if !strings.Contains(buf.String(), "result.status: ok") {
		t.Errorf("group attrs should flatten with dotted keys: %q", buf.String())
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		worker string
		jobID  string
		stage  string
		want   string
	}{
		{"worker-1", "5", "encoding", "Worker-1 · Job #5 (encoding)"},
		{"", "5", "encoding", "Job #5 (encoding)"},
		{"", "5", "", "Job #5"},
		{"", "", "encoding", "encoding"},
		{"worker-2", "", "", "Worker-2"},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		if got := FormatSubject(tt.worker, tt.jobID, tt.stage); got != tt.want {
			t.Errorf("FormatSubject(%q, %q, %q) = %q, want %q", tt.worker, tt.jobID, tt.stage, got, tt.want)
		}
	}
}

func TestTeeLoggerWritesBothHandlers(t *testing.T) {
	var a, b bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newPrettyHandler(&a, lvl, false))
	extra := slog.NewJSONHandler(&b, nil)

	TeeLogger(base, extra).Info("shared line")

	if !strings.Contains(a.String(), "shared line") {
		t.Errorf("console sink missing record: %q", a.String())
	}
	if !strings.Contains(b.String(), "shared line") {
		t.Errorf("json sink missing record: %q", b.String())
	}
}

func TestNoopHandlerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should never be enabled")
	}
	logger.Error("dropped")
}
