package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapsesTrivialCases(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Error("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if got := newFanoutHandler(nil, inner); got != inner {
		t.Error("expected a lone non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRoutesByLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := newFanoutHandler(infoHandler, debugHandler)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("fanout should be enabled when any child is")
	}

	logger := slog.New(h)
	logger.Debug("debug line")
	logger.Info("info line")

	if bytes.Contains(infoBuf.Bytes(), []byte("debug line")) {
		t.Error("info-level child should not receive debug records")
	}
	if !bytes.Contains(debugBuf.Bytes(), []byte("debug line")) {
		t.Error("debug-level child should receive debug records")
	}
	if !bytes.Contains(infoBuf.Bytes(), []byte("info line")) || !bytes.Contains(debugBuf.Bytes(), []byte("info line")) {
		t.Error("both children should receive info records")
	}
}

func TestFanoutHandlerWithAttrsAndGroup(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h.WithGroup("run").WithAttrs([]slog.Attr{slog.String("mode", "batch")}))
	logger.Info("grouped")

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"run"`)) || !bytes.Contains(buf.Bytes(), []byte(`"mode"`)) {
			t.Errorf("child %d missing group or attr: %s", i+1, buf.String())
		}
	}
}

func TestTeeLoggerDuplicatesAndTakesNilBase(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&baseBuf, nil))

	TeeLogger(base, slog.NewJSONHandler(&teeBuf, nil)).Info("teed line")
	if baseBuf.Len() == 0 || teeBuf.Len() == 0 {
		t.Error("expected the record in both sinks")
	}

	teeBuf.Reset()
	TeeLogger(nil, slog.NewJSONHandler(&teeBuf, nil)).Info("no base")
	if teeBuf.Len() == 0 {
		t.Error("expected output with a nil base logger")
	}
}
