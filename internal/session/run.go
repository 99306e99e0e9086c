package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"hopper/internal/config"
	"hopper/internal/encoder"
	"hopper/internal/events"
	"hopper/internal/history"
	"hopper/internal/logging"
	"hopper/internal/media"
	"hopper/internal/notifications"
	"hopper/internal/outpath"
	"hopper/internal/preflight"
	"hopper/internal/services/drapto"
	"hopper/internal/shutdown"
	"hopper/internal/watch"
)

// Options configures session runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Interactive bool
	Preset      string
}

// Summary reports the terminal tally of a batch run.
type Summary struct {
	Processed int
	Failed    []events.FailedVideo
	Duration  time.Duration
}

// runtime holds the wired components shared by batch and watch sessions.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	queue     *media.JobQueue
	enc       *encoder.Encoder
	bus       *events.Bus
	store     *history.Store
	runID     string
	sessionID int64
	cleanup   []func()
}

func (r *runtime) close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
}

// setup prepares directories, the per-run log file, preflight, history, and
// the encoder. root is the base for destination computation ("" flattens).
func setup(ctx context.Context, cfg *config.Config, mode, root string, opts Options) (*runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("hopper-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:            defaultString(opts.LogLevel, cfg.Logging.Level),
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update hopper.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "hopper-*.log", Exclude: []string{logPath}},
	)

	if err := preflight.FirstError(preflight.RunAll(cfg)); err != nil {
		logger.Error("preflight failed", logging.Error(err), logging.Alert("preflight_failed"))
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, runID: runID}

	pidPath := filepath.Join(cfg.Paths.LogDir, "hopper.pid")
	if err := writePIDFile(pidPath); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	rt.cleanup = append(rt.cleanup, func() { _ = os.Remove(pidPath) })

	store, err := history.Open(cfg)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("open history store: %w", err)
	}
	rt.store = store
	rt.cleanup = append(rt.cleanup, func() { _ = store.Close() })

	sessionID, err := store.BeginSession(ctx, runID, mode)
	if err != nil {
		logger.Warn("unable to record session start", logging.Error(err))
	}
	rt.sessionID = sessionID

	rt.bus = events.NewBus(512)
	rt.queue = media.NewJobQueue()
	rt.enc = encoder.New(cfg, rt.queue, newClient(cfg), logger,
		encoder.WithRoot(root),
		encoder.WithNotifier(notifications.NewService(cfg)),
		encoder.WithBus(rt.bus),
		encoder.WithHistory(store, sessionID),
	)

	logger.Info("session starting",
		logging.String("run_id", runID),
		logging.String("mode", mode),
		logging.Int("concurrency", cfg.Encoding.Concurrency),
		logging.String(logging.FieldEventType, "session_starting"),
	)
	return rt, nil
}

func newClient(cfg *config.Config) drapto.Client {
	if cfg.Encoding.UseLibrary {
		return drapto.NewLibrary()
	}
	return drapto.NewCLI(drapto.WithBinary(cfg.DraptoBinary()))
}

// RunBatch resolves the given path arguments, encodes everything found, and
// returns the terminal tally once the queue drains.
func RunBatch(ctx context.Context, cfg *config.Config, args []string, opts Options) (*Summary, error) {
	matcher := outpath.NewMatcher(cfg.Watch.Extensions)
	var inputs []string
	for _, arg := range args {
		resolved, err := matcher.Resolve(arg)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, resolved...)
	}
	root := batchRoot(args)

	rt, err := setup(ctx, cfg, "batch", root, opts)
	if err != nil {
		return nil, err
	}
	defer rt.close()

	eventCh, unsubscribe := rt.bus.Subscribe(64)
	defer unsubscribe()

	coord := shutdown.New(rt.logger, cfg.ShutdownGrace(), true, func() {
		_ = rt.enc.Stop()
		finishSession(rt)
	})
	detach := coord.Listen()
	defer detach()

	encodeOpts := media.EncodeOptions{PresetProfile: defaultString(opts.Preset, cfg.Encoding.PresetProfile)}
	queued := 0
	for _, input := range inputs {
		if _, err := rt.enc.AddVideo(input, encodeOpts); err != nil {
			if errors.Is(err, media.ErrDuplicate) {
				continue
			}
			return nil, err
		}
		queued++
	}
	if queued == 0 {
		return nil, fmt.Errorf("%w: nothing to encode", outpath.ErrNoMatches)
	}

	start := time.Now()
	if err := rt.enc.Start(ctx); err != nil {
		return nil, err
	}

	stopKeys := startKeyListener(rt.enc, coord, rt.logger, opts)
	defer stopKeys()

	event, err := waitQueueFinished(ctx, rt.bus, eventCh, queueFinishedPoll)
	_ = rt.enc.Stop()
	finishSession(rt)
	if err != nil {
		return &Summary{
			Processed: rt.enc.Processed(),
			Failed:    rt.enc.FailedVideos(),
			Duration:  time.Since(start),
		}, err
	}
	return &Summary{
		Processed: rt.enc.Processed(),
		Failed:    event.Failed,
		Duration:  time.Since(start),
	}, nil
}

const queueFinishedPoll = time.Second

// waitQueueFinished blocks until the queue reports completion. Bus delivery
// is lossy when a subscriber buffer fills, so alongside the live channel it
// periodically replays the bus from the last observed sequence; a dropped
// queue-finished event therefore delays the return by at most one poll.
func waitQueueFinished(ctx context.Context, bus *events.Bus, eventCh <-chan events.Event, poll time.Duration) (events.Event, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var lastSeq int64
	for {
		select {
		case event := <-eventCh:
			if event.Seq > lastSeq {
				lastSeq = event.Seq
			}
			if event.Type == events.TypeQueueFinished {
				return event, nil
			}
		case <-ticker.C:
			for _, event := range bus.Since(lastSeq) {
				if event.Seq > lastSeq {
					lastSeq = event.Seq
				}
				if event.Type == events.TypeQueueFinished {
					return event, nil
				}
			}
		case <-ctx.Done():
			return events.Event{}, ctx.Err()
		}
	}
}

// RunWatch encodes files as they appear under root until interrupted. A file
// lock guards against two watchers ingesting the same tree.
func RunWatch(ctx context.Context, cfg *config.Config, root string, opts Options) error {
	absRoot, err := config.ExpandPath(root)
	if err != nil {
		return err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", absRoot)
	}

	rt, err := setup(ctx, cfg, "watch", absRoot, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "hopper.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !locked {
		return errors.New("another hopper watch session is already running")
	}
	defer func() { _ = lock.Unlock() }()

	encodeOpts := media.EncodeOptions{PresetProfile: defaultString(opts.Preset, cfg.Encoding.PresetProfile)}
	matcher := outpath.NewMatcher(cfg.Watch.Extensions)
	ingestor, err := watch.New(absRoot, cfg.Paths.OutputDir, cfg.Quiescence(), matcher, rt.enc, encodeOpts, rt.logger)
	if err != nil {
		return err
	}

	coord := shutdown.New(rt.logger, cfg.ShutdownGrace(), true, func() {
		_ = ingestor.Close()
		_ = rt.enc.Stop()
		finishSession(rt)
	})
	detach := coord.Listen()
	defer detach()

	if err := rt.enc.Start(ctx); err != nil {
		_ = ingestor.Close()
		return err
	}

	stopKeys := startKeyListener(rt.enc, coord, rt.logger, opts)
	defer stopKeys()

	select {
	case <-ctx.Done():
		_ = ingestor.Close()
		_ = rt.enc.Stop()
		finishSession(rt)
		return ctx.Err()
	case <-coord.Done():
		// The coordinator owns finalization from here; block until it exits
		// the process.
		select {}
	}
}

func finishSession(rt *runtime) {
	if rt.store == nil || rt.sessionID == 0 {
		return
	}
	finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.store.FinishSession(finishCtx, rt.sessionID, rt.enc.Processed(), len(rt.enc.FailedVideos())); err != nil {
		rt.logger.Warn("unable to record session end", logging.Error(err))
	}
}

// batchRoot picks the base directory for destination computation: a single
// directory argument keeps its subtree structure, anything else flattens.
func batchRoot(args []string) string {
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(args[0]); err == nil {
				return abs
			}
		}
	}
	return ""
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "hopper.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
