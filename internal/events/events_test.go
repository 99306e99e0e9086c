package events

import (
	"testing"
	"time"
)

func TestBusSince(t *testing.T) {
	bus := NewBus(3)
	bus.Publish(Event{Type: TypeJobStarted, Message: "1"})
	bus.Publish(Event{Type: TypeJobStarted, Message: "2"})
	bus.Publish(Event{Type: TypeJobFinished, Message: "3"})

	got := bus.Since(1)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Seq != 2 || got[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", got)
	}
}

func TestBusCapsHistory(t *testing.T) {
	bus := NewBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	got := bus.Since(0)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Message != "2" || got[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestSubscribeReceivesPublished(t *testing.T) {
	bus := NewBus(10)
	ch, cancel := bus.Subscribe(4)
	defer cancel()

	published := bus.Publish(Event{
		Type:   TypeQueueFinished,
		Failed: []FailedVideo{{SourcePath: "/in/b.mkv", Reason: "disk full"}},
	})

	select {
	case got := <-ch:
		if got.Seq != published.Seq {
			t.Fatalf("seq = %d, want %d", got.Seq, published.Seq)
		}
		if got.Type != TypeQueueFinished {
			t.Fatalf("type = %q", got.Type)
		}
		if len(got.Failed) != 1 || got.Failed[0].Reason != "disk full" {
			t.Fatalf("failed list = %+v", got.Failed)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := NewBus(10)
	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel() // safe to call twice

	bus.Publish(Event{Type: TypeJobStarted})

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after cancel")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus(10)
	_, cancel := bus.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.Publish(Event{Type: TypeJobStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber channel")
	}

	// History retains everything even though the subscriber missed events.
	if got := bus.Since(0); len(got) != 5 {
		t.Fatalf("history len = %d, want 5", len(got))
	}
}
