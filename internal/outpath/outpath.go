package outpath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoMatches marks input resolution that produced no video files.
var ErrNoMatches = errors.New("no matching video files")

// EncodedExtension is the container drapto always produces.
const EncodedExtension = ".mkv"

// Matcher decides which files count as video input, based on the configured
// extension list.
type Matcher struct {
	exts map[string]struct{}
}

// NewMatcher builds a matcher from extension names with or without leading
// dots, case-insensitive.
func NewMatcher(extensions []string) *Matcher {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		normalized = strings.TrimPrefix(normalized, ".")
		if normalized == "" {
			continue
		}
		exts[normalized] = struct{}{}
	}
	return &Matcher{exts: exts}
}

// IsVideo reports whether the path carries one of the accepted extensions.
func (m *Matcher) IsVideo(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := m.exts[ext]
	return ok
}

// IsHidden reports whether any component of the path is dot-prefixed.
func IsHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

// Within reports whether path sits under dir after cleaning. Both inputs
// should already be absolute.
func Within(dir, path string) bool {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	if dir == path {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Resolve expands a raw CLI argument into concrete video file paths.
// An existing file is returned as-is when it carries an accepted video
// extension; a directory is walked recursively with
// hidden entries skipped; anything else is treated as a glob pattern. Results
// are sorted for deterministic dispatch order. Returns ErrNoMatches (wrapped
// with the raw argument) when nothing usable is found.
func (m *Matcher) Resolve(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNoMatches)
	}

	if info, err := os.Stat(raw); err == nil {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", raw, err)
		}
		if !info.IsDir() {
			if !m.IsVideo(abs) {
				return nil, fmt.Errorf("%w: %s is not a video file", ErrNoMatches, raw)
			}
			return []string{abs}, nil
		}
		files, err := m.scanDir(abs)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatches, raw)
		}
		return files, nil
	}

	matches, err := filepath.Glob(raw)
	if err != nil {
		return nil, fmt.Errorf("bad glob pattern %q: %w", raw, err)
	}
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if IsHidden(match) || !m.IsVideo(match) {
			continue
		}
		abs, err := filepath.Abs(match)
		if err != nil {
			continue
		}
		files = append(files, abs)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, raw)
	}
	sort.Strings(files)
	return files, nil
}

func (m *Matcher) scanDir(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if m.IsVideo(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Destination computes the output file for a source: the output root joined
// with the source's path relative to sourceRoot, extension replaced with the
// encoded container. An empty or unrelated sourceRoot flattens to the base
// name.
func Destination(sourceRoot, sourcePath, outputRoot string) string {
	rel := filepath.Base(sourcePath)
	if sourceRoot != "" {
		if r, err := filepath.Rel(sourceRoot, sourcePath); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			rel = r
		}
	}
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outputRoot, stem+EncodedExtension)
}
