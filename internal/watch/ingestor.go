package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hopper/internal/logging"
	"hopper/internal/media"
	"hopper/internal/outpath"
)

// Intake is the encoder surface the ingestor feeds. WatchIgnore is consulted
// before a ready file is submitted so re-notified paths are dropped cheaply.
type Intake interface {
	AddVideo(sourcePath string, opts media.EncodeOptions) (*media.VideoJob, error)
	WatchIgnore(sourcePath string) bool
}

// pendingFile tracks one debounced path: the reset-on-write timer and the
// size observed when the timer was last armed.
type pendingFile struct {
	timer *time.Timer
	size  int64
}

// Ingestor adapts fsnotify events under a watched root into intake calls.
// A file is considered ready once the quiescence window elapses with no
// further writes and its size is unchanged across a re-stat.
type Ingestor struct {
	root       string
	outputRoot string
	quiescence time.Duration
	matcher    *outpath.Matcher
	intake     Intake
	opts       media.EncodeOptions
	logger     *slog.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingFile
	closed  bool

	done chan struct{}
}

// New creates an ingestor watching root recursively and starts its event
// loop. Close must be called to release the underlying watcher.
func New(root, outputRoot string, quiescence time.Duration, matcher *outpath.Matcher, intake Intake, opts media.EncodeOptions, logger *slog.Logger) (*Ingestor, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if quiescence <= 0 {
		quiescence = 2 * time.Second
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	ingestor := &Ingestor{
		root:       root,
		outputRoot: outputRoot,
		quiescence: quiescence,
		matcher:    matcher,
		intake:     intake,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "watch"),
		watcher:    watcher,
		pending:    make(map[string]*pendingFile),
		done:       make(chan struct{}),
	}

	if err := ingestor.addWatchTree(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go ingestor.loop()
	ingestor.logger.Info("watching for new videos",
		logging.String("root", root),
		logging.Duration("quiescence", quiescence),
		logging.String(logging.FieldEventType, "watch_started"),
	)
	return ingestor, nil
}

// Root returns the watched directory.
func (i *Ingestor) Root() string { return i.root }

// Close stops the watcher and cancels all pending debounce timers. Safe to
// call more than once.
func (i *Ingestor) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	for path, entry := range i.pending {
		entry.timer.Stop()
		delete(i.pending, path)
	}
	i.mu.Unlock()

	err := i.watcher.Close()
	<-i.done
	i.logger.Info("watch stopped", logging.String(logging.FieldEventType, "watch_stopped"))
	return err
}

// addWatchTree registers root and every non-hidden subdirectory.
func (i *Ingestor) addWatchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if i.outputRoot != "" && outpath.Within(i.outputRoot, path) {
			return filepath.SkipDir
		}
		if err := i.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %q: %w", path, err)
		}
		return nil
	})
}

func (i *Ingestor) loop() {
	defer close(i.done)
	for {
		select {
		case event, ok := <-i.watcher.Events:
			if !ok {
				return
			}
			i.handleEvent(event)
		case err, ok := <-i.watcher.Errors:
			if !ok {
				return
			}
			i.logger.Warn("watcher error", logging.Error(err), logging.Alert("watch_error"))
		}
	}
}

func (i *Ingestor) handleEvent(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if event.Op&fsnotify.Create != 0 {
				i.watchNewDirectory(path)
			}
			return
		}
		if i.ignored(path) {
			return
		}
		i.schedule(path, info.Size())
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// The file is gone; drop any pending debounce. If it reappears the
		// seen set still suppresses re-encoding of processed paths.
		i.cancelPending(path)
	}
}

// watchNewDirectory adds watches for a directory created after startup and
// schedules any files already inside it, which raced the watch registration.
func (i *Ingestor) watchNewDirectory(dir string) {
	if outpath.IsHidden(dir) {
		return
	}
	if err := i.addWatchTree(dir); err != nil {
		i.logger.Warn("unable to watch new directory", logging.String("dir", dir), logging.Error(err))
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if i.ignored(path) {
			return nil
		}
		if info, statErr := os.Stat(path); statErr == nil {
			i.schedule(path, info.Size())
		}
		return nil
	})
}

func (i *Ingestor) ignored(path string) bool {
	if outpath.IsHidden(path) {
		return true
	}
	if i.matcher != nil && !i.matcher.IsVideo(path) {
		return true
	}
	if i.outputRoot != "" && outpath.Within(i.outputRoot, path) {
		return true
	}
	return false
}

// schedule arms (or re-arms) the quiescence timer for a path. Every write
// event lands here, so a file being copied in keeps pushing its readiness
// out until writes stop.
func (i *Ingestor) schedule(path string, size int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	if entry, ok := i.pending[path]; ok {
		entry.size = size
		entry.timer.Reset(i.quiescence)
		return
	}
	entry := &pendingFile{size: size}
	entry.timer = time.AfterFunc(i.quiescence, func() { i.settle(path) })
	i.pending[path] = entry
}

func (i *Ingestor) cancelPending(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if entry, ok := i.pending[path]; ok {
		entry.timer.Stop()
		delete(i.pending, path)
	}
}

// settle runs when a path's quiescence window elapses. The size is checked
// against a fresh stat; growth re-arms the timer instead of submitting a
// half-written file.
func (i *Ingestor) settle(path string) {
	i.mu.Lock()
	entry, ok := i.pending[path]
	if !ok || i.closed {
		i.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(i.pending, path)
		i.mu.Unlock()
		return
	}
	if info.Size() != entry.size {
		entry.size = info.Size()
		entry.timer.Reset(i.quiescence)
		i.mu.Unlock()
		return
	}
	delete(i.pending, path)
	i.mu.Unlock()

	i.submit(path)
}

func (i *Ingestor) submit(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Warn("unable to resolve watched path", logging.String("path", path), logging.Error(err))
		return
	}
	if i.intake.WatchIgnore(abs) {
		i.logger.Debug("ignoring already-seen path",
			logging.String("path", abs),
			logging.String(logging.FieldEventType, "watch_duplicate"),
		)
		return
	}
	if _, err := i.intake.AddVideo(abs, i.opts); err != nil {
		if errors.Is(err, media.ErrDuplicate) {
			return
		}
		i.logger.Warn("unable to queue watched file",
			logging.String("path", abs),
			logging.Error(err),
			logging.Alert("watch_enqueue_failed"),
		)
		return
	}
	i.logger.Info("watched file queued",
		logging.String("path", abs),
		logging.String(logging.FieldEventType, "watch_file_queued"),
	)
}
