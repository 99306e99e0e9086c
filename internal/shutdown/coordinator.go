package shutdown

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hopper/internal/logging"
)

// Exit codes reported to the operating system.
const (
	ExitOK     = 0
	ExitForced = 1
)

// Coordinator owns the process-wide interrupt counter. It is the only
// component that finalizes the process; everything else requests shutdown
// through it.
type Coordinator struct {
	logger      *slog.Logger
	grace       time.Duration
	durableSink bool
	stop        func()
	exit        func(int)

	mu       sync.Mutex
	requests int

	signals chan os.Signal
	done    chan struct{}
}

// Option configures coordinator internals.
type Option func(*Coordinator)

// WithExitFunc replaces os.Exit, used by tests to observe exit codes.
func WithExitFunc(exit func(int)) Option {
	return func(c *Coordinator) {
		if exit != nil {
			c.exit = exit
		}
	}
}

// New builds a coordinator. stop is invoked exactly once on the first
// interrupt or fatal error and must tear down the watcher and encoder; it
// must not block on anything the coordinator holds. grace is the delay before
// finalization that lets a durable log sink flush; it is skipped when no sink
// is attached.
func New(logger *slog.Logger, grace time.Duration, durableSink bool, stop func(), opts ...Option) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if stop == nil {
		stop = func() {}
	}
	c := &Coordinator{
		logger:      logging.NewComponentLogger(logger, "shutdown"),
		grace:       grace,
		durableSink: durableSink,
		stop:        stop,
		exit:        os.Exit,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listen wires SIGINT and SIGTERM into the escalation sequence. The returned
// func detaches the signal handler.
func (c *Coordinator) Listen() func() {
	c.signals = make(chan os.Signal, 2)
	signal.Notify(c.signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range c.signals {
			c.Interrupt()
		}
	}()
	return func() {
		signal.Stop(c.signals)
		close(c.signals)
	}
}

// Requests returns how many shutdown requests have been received.
func (c *Coordinator) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// Done is closed once a graceful shutdown has begun.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Interrupt registers one operator interrupt. The first request starts a
// graceful shutdown ending in exit code 0 after the flush grace; any further
// request bypasses the grace and forces exit code 1 immediately.
func (c *Coordinator) Interrupt() {
	c.mu.Lock()
	c.requests++
	requests := c.requests
	c.mu.Unlock()

	if requests > 1 {
		c.logger.Warn("shutdown requested more than once; forcing exit",
			logging.Int("requests", requests),
			logging.Alert("forced_shutdown"),
		)
		c.exit(ExitForced)
		return
	}

	c.logger.Info("shutdown requested",
		logging.String(logging.FieldEventType, "shutdown_requested"),
	)
	go c.finalize(ExitOK)
}

// Fatal reports an uncaught error outside job processing. It follows the
// graceful path but always finalizes with a non-zero exit code.
func (c *Coordinator) Fatal(err error) {
	c.mu.Lock()
	c.requests++
	requests := c.requests
	c.mu.Unlock()

	if requests > 1 {
		c.exit(ExitForced)
		return
	}

	c.logger.Error("fatal error; shutting down",
		logging.Error(err),
		logging.Alert("fatal_shutdown"),
	)
	go c.finalize(ExitForced)
}

func (c *Coordinator) finalize(code int) {
	close(c.done)
	c.stop()
	if c.durableSink && c.grace > 0 {
		// Let buffered log writes reach the file sink before the process ends.
		time.Sleep(c.grace)
	}
	c.exit(code)
}
