package outpath_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hopper/internal/outpath"
)

func defaultMatcher() *outpath.Matcher {
	return outpath.NewMatcher([]string{"mkv", "mp4", "avi"})
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveSingleFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "movie.mkv")
	writeFile(t, file)

	got, err := defaultMatcher().Resolve(file)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0] != file {
		t.Fatalf("Resolve = %v, want [%s]", got, file)
	}
}

func TestResolveRejectsNonVideoFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	writeFile(t, file)

	// Naming a file directly does not exempt it from the extension filter.
	_, err := defaultMatcher().Resolve(file)
	if !errors.Is(err, outpath.ErrNoMatches) {
		t.Fatalf("err = %v, want ErrNoMatches", err)
	}
}

func TestResolveDirectoryRecursesAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mkv"))
	writeFile(t, filepath.Join(dir, "shows", "ep1.mp4"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, ".hidden.mkv"))
	writeFile(t, filepath.Join(dir, ".stage", "partial.mkv"))

	got, err := defaultMatcher().Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.mkv"),
		filepath.Join(dir, "shows", "ep1.mp4"),
	}
	if len(got) != len(want) {
		t.Fatalf("Resolve = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Resolve = %v, want %v", got, want)
		}
	}
}

func TestResolveGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.mkv"))
	writeFile(t, filepath.Join(dir, "two.mkv"))
	writeFile(t, filepath.Join(dir, "skip.txt"))

	got, err := defaultMatcher().Resolve(filepath.Join(dir, "*.mkv"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Resolve = %v, want two mkv files", got)
	}
}

func TestResolveNoMatches(t *testing.T) {
	dir := t.TempDir()
	_, err := defaultMatcher().Resolve(filepath.Join(dir, "*.mkv"))
	if !errors.Is(err, outpath.ErrNoMatches) {
		t.Fatalf("err = %v, want ErrNoMatches", err)
	}

	_, err = defaultMatcher().Resolve(dir)
	if !errors.Is(err, outpath.ErrNoMatches) {
		t.Fatalf("empty dir err = %v, want ErrNoMatches", err)
	}
}

func TestDestinationMirrorsRelativePath(t *testing.T) {
	got := outpath.Destination("/media/in", "/media/in/shows/s1/ep1.mp4", "/media/out")
	want := filepath.Join("/media/out", "shows", "s1", "ep1.mkv")
	if got != want {
		t.Fatalf("Destination = %q, want %q", got, want)
	}
}

func TestDestinationFlattensWithoutRoot(t *testing.T) {
	got := outpath.Destination("", "/elsewhere/movie.avi", "/media/out")
	want := filepath.Join("/media/out", "movie.mkv")
	if got != want {
		t.Fatalf("Destination = %q, want %q", got, want)
	}

	// Unrelated root also falls back to the base name.
	got = outpath.Destination("/media/in", "/elsewhere/movie.avi", "/media/out")
	if got != want {
		t.Fatalf("Destination = %q, want %q", got, want)
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/media/in/movie.mkv", false},
		{"/media/in/.movie.mkv", true},
		{"/media/in/.stage/movie.mkv", true},
		{"/media/../in/movie.mkv", false},
	}
	for _, tt := range tests {
		if got := outpath.IsHidden(tt.path); got != tt.want {
			t.Errorf("IsHidden(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWithin(t *testing.T) {
	if !outpath.Within("/media/out", "/media/out/shows/ep1.mkv") {
		t.Fatal("expected nested path to be within")
	}
	if outpath.Within("/media/out", "/media/outside/ep1.mkv") {
		t.Fatal("sibling with shared prefix must not count as within")
	}
	if !outpath.Within("/media/out", "/media/out") {
		t.Fatal("dir is within itself")
	}
}

func TestIsVideoExtensions(t *testing.T) {
	m := outpath.NewMatcher([]string{".MKV", "mp4"})
	if !m.IsVideo("/in/a.mkv") || !m.IsVideo("/in/b.MP4") {
		t.Fatal("expected case-insensitive extension match")
	}
	if m.IsVideo("/in/c.txt") || m.IsVideo("/in/noext") {
		t.Fatal("unexpected match")
	}
}
