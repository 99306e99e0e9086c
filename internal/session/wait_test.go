package session

import (
	"context"
	"testing"
	"time"

	"hopper/internal/events"
)

func TestWaitQueueFinishedReturnsLiveEvent(t *testing.T) {
	bus := events.NewBus(32)
	eventCh, cancel := bus.Subscribe(16)
	defer cancel()

	bus.Publish(events.Event{Type: events.TypeJobFinished})
	bus.Publish(events.Event{Type: events.TypeQueueFinished})

	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCtx()

	event, err := waitQueueFinished(ctx, bus, eventCh, time.Minute)
	if err != nil {
		t.Fatalf("waitQueueFinished: %v", err)
	}
	if event.Type != events.TypeQueueFinished {
		t.Fatalf("event.Type = %q, want %q", event.Type, events.TypeQueueFinished)
	}
}

func TestWaitQueueFinishedRecoversDroppedEvent(t *testing.T) {
	bus := events.NewBus(32)
	eventCh, cancel := bus.Subscribe(1)
	defer cancel()

	// Overflow the one-slot subscriber so the finish event is dropped from
	// live delivery and is only reachable through the bus replay.
	bus.Publish(events.Event{Type: events.TypeJobStarted, SourcePath: "/in/a.mkv"})
	bus.Publish(events.Event{Type: events.TypeJobFinished, SourcePath: "/in/a.mkv"})
	bus.Publish(events.Event{
		Type:   events.TypeQueueFinished,
		Failed: []events.FailedVideo{{SourcePath: "/in/a.mkv", Reason: "encode failed"}},
	})

	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCtx()

	event, err := waitQueueFinished(ctx, bus, eventCh, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("waitQueueFinished: %v", err)
	}
	if event.Type != events.TypeQueueFinished {
		t.Fatalf("event.Type = %q, want %q", event.Type, events.TypeQueueFinished)
	}
	if len(event.Failed) != 1 || event.Failed[0].SourcePath != "/in/a.mkv" {
		t.Fatalf("event.Failed = %+v, want the replayed failure", event.Failed)
	}
}

func TestWaitQueueFinishedHonorsContext(t *testing.T) {
	bus := events.NewBus(32)
	eventCh, cancel := bus.Subscribe(1)
	defer cancel()

	ctx, cancelCtx := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelCtx()

	if _, err := waitQueueFinished(ctx, bus, eventCh, time.Minute); err == nil {
		t.Fatal("expected a context error when no finish event arrives")
	}
}
