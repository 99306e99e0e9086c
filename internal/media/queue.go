package media

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicate marks an enqueue attempt for a source path that was already
// submitted this session, whether pending, in flight, or finished.
var ErrDuplicate = errors.New("duplicate submission")

// JobQueue is an in-memory FIFO of pending video jobs with duplicate
// suppression. Queue state lives for the process lifetime only; a restart
// begins with an empty queue.
//
// Safe for concurrent use. The seen set outlives individual jobs so a watcher
// re-notifying an already-processed path is suppressed rather than re-encoded.
type JobQueue struct {
	mu      sync.Mutex
	pending []*VideoJob
	seen    map[string]struct{}
	nextID  int64
}

// NewJobQueue returns an empty queue.
func NewJobQueue() *JobQueue {
	return &JobQueue{seen: make(map[string]struct{})}
}

// Enqueue creates a Queued job for the given source and appends it to the
// pending list. Returns ErrDuplicate (wrapped with the offending path) when
// the source path has been submitted before.
func (q *JobQueue) Enqueue(sourcePath, destination, title string, opts EncodeOptions) (*VideoJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.seen[sourcePath]; dup {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, sourcePath)
	}

	q.nextID++
	job := &VideoJob{
		ID:          q.nextID,
		SourcePath:  sourcePath,
		Destination: destination,
		Title:       title,
		Options:     opts,
		Status:      StatusQueued,
		EnqueuedAt:  time.Now(),
	}
	q.pending = append(q.pending, job)
	q.seen[sourcePath] = struct{}{}
	return job, nil
}

// Dequeue removes and returns the oldest pending job, or nil when the queue
// is empty.
func (q *JobQueue) Dequeue() *VideoJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	job := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return job
}

// Len returns the number of pending jobs.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// IsEmpty reports whether no jobs are pending.
func (q *JobQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Seen reports whether the source path has been submitted this session.
func (q *JobQueue) Seen(sourcePath string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.seen[sourcePath]
	return ok
}

// Pending returns a snapshot of the queued jobs in dispatch order.
func (q *JobQueue) Pending() []*VideoJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := make([]*VideoJob, len(q.pending))
	copy(cp, q.pending)
	return cp
}

// Clear drops all pending jobs and returns them. Dropped jobs keep their
// place in the seen set so they are not silently re-enqueued afterwards.
func (q *JobQueue) Clear() []*VideoJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := q.pending
	q.pending = nil
	return dropped
}
