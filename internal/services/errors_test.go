package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hopper/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "encoding", "drapto encode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encoding", "drapto encode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "watch", "stat", "stat failed", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestFailureReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"cancelled", context.Canceled, "cancelled"},
		{"wrapped cancel", services.Wrap(services.ErrExternalTool, "encoding", "drapto encode", "aborted", context.Canceled), "cancelled"},
		{"tool", services.Wrap(services.ErrExternalTool, "encoding", "drapto encode", "exit 1", nil), "tool"},
		{"validation", services.Wrap(services.ErrValidation, "intake", "resolve", "bad path", nil), "invalid"},
		{"missing", services.Wrap(services.ErrNotFound, "intake", "resolve", "no match", nil), "missing"},
		{"plain", errors.New("disk full"), "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.FailureReason(tc.err); got != tc.want {
				t.Fatalf("FailureReason(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsCancellation(t *testing.T) {
	if !services.IsCancellation(context.Canceled) {
		t.Fatal("expected context.Canceled to classify as cancellation")
	}
	if services.IsCancellation(errors.New("disk full")) {
		t.Fatal("unexpected cancellation classification")
	}
}
