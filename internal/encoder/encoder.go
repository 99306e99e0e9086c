package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hopper/internal/config"
	"hopper/internal/events"
	"hopper/internal/history"
	"hopper/internal/logging"
	"hopper/internal/media"
	"hopper/internal/notifications"
	"hopper/internal/outpath"
	"hopper/internal/services/drapto"
)

type dispatchRecord struct {
	job    *media.VideoJob
	cancel context.CancelFunc
}

type completion struct {
	job        *media.VideoJob
	outputPath string
	err        error
}

// Encoder coordinates dispatch of queued videos to the Drapto client. A
// single control loop is the only mutator of dispatch state; public lifecycle
// calls flip guarded flags inspected at loop iteration boundaries.
type Encoder struct {
	cfg      *config.Config
	queue    *media.JobQueue
	client   drapto.Client
	logger   *slog.Logger
	notifier notifications.Service
	bus      *events.Bus
	store    *history.Store

	root        string
	concurrency int
	stopGrace   time.Duration

	mu          sync.Mutex
	state       State
	inFlight    map[int64]*dispatchRecord
	failed      []*media.VideoJob
	sessionID   int64
	queueActive bool
	queueStart  time.Time
	processed   int
	cancel      context.CancelFunc
	done        chan struct{}

	wake        chan struct{}
	completions chan completion
}

// Option configures optional Encoder collaborators.
type Option func(*Encoder)

// WithRoot sets the base directory used to compute relative destinations.
func WithRoot(root string) Option {
	return func(e *Encoder) { e.root = root }
}

// WithNotifier overrides the push notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(e *Encoder) {
		if notifier != nil {
			e.notifier = notifier
		}
	}
}

// WithBus overrides the event bus.
func WithBus(bus *events.Bus) Option {
	return func(e *Encoder) {
		if bus != nil {
			e.bus = bus
		}
	}
}

// WithHistory attaches the outcome store and the session the outcomes belong
// to. A nil store disables recording.
func WithHistory(store *history.Store, sessionID int64) Option {
	return func(e *Encoder) {
		e.store = store
		e.sessionID = sessionID
	}
}

// New constructs an idle encoder over the given queue and Drapto client.
func New(cfg *config.Config, queue *media.JobQueue, client drapto.Client, logger *slog.Logger, opts ...Option) *Encoder {
	if logger == nil {
		logger = logging.NewNop()
	}
	concurrency := 1
	stopGrace := 10 * time.Second
	if cfg != nil {
		if cfg.Encoding.Concurrency > 0 {
			concurrency = cfg.Encoding.Concurrency
		}
		if grace := cfg.StopGrace(); grace > 0 {
			stopGrace = grace
		}
	}
	enc := &Encoder{
		cfg:         cfg,
		queue:       queue,
		client:      client,
		logger:      logging.NewComponentLogger(logger, "encoder"),
		notifier:    notifications.NewService(cfg),
		bus:         events.NewBus(0),
		concurrency: concurrency,
		stopGrace:   stopGrace,
		state:       StateIdle,
		inFlight:    make(map[int64]*dispatchRecord),
		wake:        make(chan struct{}, 1),
		completions: make(chan completion, concurrency),
	}
	for _, opt := range opts {
		opt(enc)
	}
	return enc
}

// State returns the current lifecycle phase.
func (e *Encoder) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Running reports whether the dispatch loop is pulling new work.
func (e *Encoder) Running() bool { return e.State() == StateRunning }

// Paused reports whether dispatch is suspended.
func (e *Encoder) Paused() bool { return e.State() == StatePaused }

// Root returns the base directory used for destination computation.
func (e *Encoder) Root() string { return e.root }

// Bus returns the event bus the encoder publishes on.
func (e *Encoder) Bus() *events.Bus { return e.bus }

// InFlight returns the number of dispatched jobs not yet settled.
func (e *Encoder) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inFlight)
}

// Processed returns the number of jobs that reached a terminal status.
func (e *Encoder) Processed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processed
}

// FailedVideos returns the failed jobs recorded so far, in completion order.
func (e *Encoder) FailedVideos() []events.FailedVideo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failedSnapshotLocked()
}

func (e *Encoder) failedSnapshotLocked() []events.FailedVideo {
	out := make([]events.FailedVideo, 0, len(e.failed))
	for _, job := range e.failed {
		out = append(out, events.FailedVideo{SourcePath: job.SourcePath, Reason: job.ErrorMessage})
	}
	return out
}

// WatchIgnore reports whether the source path has been submitted before and
// would be suppressed as a duplicate.
func (e *Encoder) WatchIgnore(sourcePath string) bool {
	return e.queue.Seen(sourcePath)
}

// AddVideo computes the job's destination and title and enqueues it. Returns
// media.ErrDuplicate for paths already submitted this session; duplicates are
// benign and logged at debug level.
func (e *Encoder) AddVideo(sourcePath string, opts media.EncodeOptions) (*media.VideoJob, error) {
	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return nil, ErrStopped
	}
	e.mu.Unlock()

	outputRoot := ""
	if e.cfg != nil {
		outputRoot = e.cfg.Paths.OutputDir
	}
	destination := outpath.Destination(e.root, sourcePath, outputRoot)
	title := media.DeriveTitle(sourcePath)

	job, err := e.queue.Enqueue(sourcePath, destination, title, opts)
	if err != nil {
		if errors.Is(err, media.ErrDuplicate) {
			e.logger.Debug("duplicate submission suppressed",
				logging.String("source", sourcePath),
				logging.String(logging.FieldEventType, "duplicate_submission"),
			)
		}
		return nil, err
	}

	e.logger.Info("queued video",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("source", job.SourcePath),
		logging.String("destination", job.Destination),
		logging.String(logging.FieldEventType, "video_queued"),
	)
	e.wakeLoop()
	return job, nil
}

func (e *Encoder) wakeLoop() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Pause suspends dispatch of new jobs. In-flight encodes run to completion.
func (e *Encoder) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning {
		return fmt.Errorf("%w (state %s)", ErrNotRunning, e.state)
	}
	e.state = StatePaused
	e.logger.Info("encoding paused",
		logging.Int("in_flight", len(e.inFlight)),
		logging.String(logging.FieldEventType, "encoder_paused"),
	)
	return nil
}

// Resume restarts dispatch after a pause. Rejected with ErrDraining while
// jobs dispatched before the pause have not settled yet.
func (e *Encoder) Resume() error {
	e.mu.Lock()
	if e.state != StatePaused {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrNotPaused, state)
	}
	if inFlight := len(e.inFlight); inFlight > 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d jobs in flight", ErrDraining, inFlight)
	}
	e.state = StateRunning
	e.mu.Unlock()

	e.logger.Info("encoding resumed", logging.String(logging.FieldEventType, "encoder_resumed"))
	e.wakeLoop()
	return nil
}

// Stop cancels in-flight encodes, drops the pending queue, and moves the
// encoder to its terminal state. Cancellation is advisory: encodes that do
// not abort finish in the background and their results are discarded. Stop
// waits at most the configured grace for in-flight work to settle and is
// idempotent.
func (e *Encoder) Stop() error {
	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return nil
	}
	e.markStoppedLocked()
	done := e.done
	e.mu.Unlock()

	e.wakeLoop()
	if done == nil {
		// Never started; nothing to drain.
		return nil
	}
	select {
	case <-done:
	case <-time.After(e.stopGrace):
		e.logger.Warn("stop grace elapsed; in-flight encodes finishing in background",
			logging.String(logging.FieldEventType, "encoder_stop_grace_elapsed"),
		)
	}
	return nil
}

// markStoppedLocked flips the state, clears pending work, and cancels
// in-flight dispatch contexts. Callers hold e.mu.
func (e *Encoder) markStoppedLocked() {
	e.state = StateStopped
	e.queueActive = false
	now := time.Now()
	var dropped int
	if e.queue != nil {
		for _, job := range e.queue.Clear() {
			job.MarkFailed(now, media.StopReason)
			dropped++
		}
	}
	for _, rec := range e.inFlight {
		rec.cancel()
	}
	e.logger.Info("encoder stopping",
		logging.Int("dropped", dropped),
		logging.Int("in_flight", len(e.inFlight)),
		logging.String(logging.FieldEventType, "encoder_stopping"),
	)
}
