package services_test

import (
	"context"
	"testing"

	"hopper/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, 42)
	ctx = services.WithStage(ctx, "encoding")
	ctx = services.WithWorker(ctx, "worker-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "encoding" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if worker, ok := services.WorkerFromContext(ctx); !ok || worker != "worker-1" {
		t.Fatalf("unexpected worker: %v %v", worker, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
