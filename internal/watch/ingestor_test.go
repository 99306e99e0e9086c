package watch_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hopper/internal/logging"
	"hopper/internal/media"
	"hopper/internal/outpath"
	"hopper/internal/watch"
)

type fakeIntake struct {
	mu    sync.Mutex
	seen  map[string]bool
	added []string
}

func newFakeIntake() *fakeIntake {
	return &fakeIntake{seen: make(map[string]bool)}
}

func (f *fakeIntake) AddVideo(sourcePath string, opts media.EncodeOptions) (*media.VideoJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, sourcePath)
	f.seen[sourcePath] = true
	return &media.VideoJob{SourcePath: sourcePath, Status: media.StatusQueued}, nil
}

func (f *fakeIntake) WatchIgnore(sourcePath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[sourcePath]
}

func (f *fakeIntake) addedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.added...)
}

func newTestIngestor(t *testing.T, root string, intake watch.Intake) *watch.Ingestor {
	t.Helper()
	matcher := outpath.NewMatcher([]string{"mkv", "mp4"})
	ingestor, err := watch.New(root, filepath.Join(root, ".out"), 60*time.Millisecond, matcher, intake, media.EncodeOptions{}, testLogger())
	if err != nil {
		t.Fatalf("watch.New: %v", err)
	}
	t.Cleanup(func() { _ = ingestor.Close() })
	return ingestor
}

func testLogger() *slog.Logger {
	return logging.NewNop()
}

func waitForAdds(t *testing.T, intake *fakeIntake, want int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got := intake.addedPaths(); len(got) >= want {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d submissions; got %v", want, intake.addedPaths())
	return nil
}

func TestStableFileQueuedOnce(t *testing.T) {
	root := t.TempDir()
	intake := newFakeIntake()
	newTestIngestor(t, root, intake)

	target := filepath.Join(root, "movie.mkv")
	if err := os.WriteFile(target, []byte("part"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// A second write inside the quiescence window must reset the debounce,
	// not produce a second submission.
	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(target, []byte("part two"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	got := waitForAdds(t, intake, 1)
	time.Sleep(200 * time.Millisecond)
	got = intake.addedPaths()
	if len(got) != 1 {
		t.Fatalf("submissions = %v, want exactly one", got)
	}
	if filepath.Base(got[0]) != "movie.mkv" {
		t.Fatalf("submitted %q, want movie.mkv", got[0])
	}
}

func TestHiddenAndNonVideoIgnored(t *testing.T) {
	root := t.TempDir()
	intake := newFakeIntake()
	newTestIngestor(t, root, intake)

	if err := os.WriteFile(filepath.Join(root, ".partial.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write hidden: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "keep.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	got := waitForAdds(t, intake, 1)
	time.Sleep(200 * time.Millisecond)
	got = intake.addedPaths()
	if len(got) != 1 || filepath.Base(got[0]) != "keep.mkv" {
		t.Fatalf("submissions = %v, want only keep.mkv", got)
	}
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	intake := newFakeIntake()
	newTestIngestor(t, root, intake)

	sub := filepath.Join(root, "season1")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the create event time to register the new watch.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "ep1.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := waitForAdds(t, intake, 1)
	if filepath.Base(got[0]) != "ep1.mkv" {
		t.Fatalf("submitted %q, want ep1.mkv", got[0])
	}
}

func TestSeenPathSuppressed(t *testing.T) {
	root := t.TempDir()
	intake := newFakeIntake()
	target := filepath.Join(root, "done.mkv")
	abs, err := filepath.Abs(target)
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	intake.seen[abs] = true
	newTestIngestor(t, root, intake)

	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := intake.addedPaths(); len(got) != 0 {
		t.Fatalf("submissions = %v, want none for seen path", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	root := t.TempDir()
	ingestor := newTestIngestor(t, root, newFakeIntake())

	if err := ingestor.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ingestor.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
