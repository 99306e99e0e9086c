package events

import (
	"sync"
	"time"
)

// Type classifies messages emitted during queue processing.
type Type string

const (
	TypeJobStarted    Type = "job_started"
	TypeJobFinished   Type = "job_finished"
	TypeQueueFinished Type = "queue_finished"
)

// FailedVideo pairs a source path with the reason its encode failed.
type FailedVideo struct {
	SourcePath string
	Reason     string
}

// Event is a sequenced payload consumed by subscribers.
type Event struct {
	Seq        int64
	Timestamp  time.Time
	Type       Type
	JobID      int64
	SourcePath string
	Title      string
	Message    string
	Failed     []FailedVideo
}

// Bus stores recent events, fans them out to live subscribers, and provides
// incremental reads by sequence number.
//
// Delivery to subscribers is non-blocking: a subscriber whose channel is full
// misses the event and can recover it through Since.
type Bus struct {
	mu        sync.Mutex
	nextSeq   int64
	maxEvents int
	events    []Event
	subs      map[int]chan Event
	nextSub   int
}

// NewBus creates a bounded in-memory event buffer.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		subs:      make(map[int]chan Event),
	}
}

// Publish appends one event, assigns sequence and timestamp, and fans it out.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}

	return event
}

// Subscribe registers a live listener. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
