package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Encoding contains configuration for the encode workers.
type Encoding struct {
	Concurrency      int    `toml:"concurrency"`
	PresetProfile    string `toml:"preset_profile"`
	DraptoBinary     string `toml:"drapto_binary"`
	UseLibrary       bool   `toml:"use_library"`
	StopGraceSeconds int    `toml:"stop_grace_seconds"`
}

// Watch contains configuration for the directory watcher.
type Watch struct {
	QuiescenceSeconds int      `toml:"quiescence_seconds"`
	Extensions        []string `toml:"extensions"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	QueueStarted   bool   `toml:"queue_started"`
	QueueCompleted bool   `toml:"queue_completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// History contains configuration for the encode history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Workflow contains configuration for shutdown timing.
type Workflow struct {
	ShutdownGraceMS int `toml:"shutdown_grace_ms"`
}

// Config encapsulates all configuration values for Hopper.
//
// Configuration sections by subsystem:
//   - Paths: output, staging, and log directories
//   - Encoding: worker concurrency, drapto preset, and stop behavior
//   - Watch: debounce window and accepted file extensions
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
//   - History: encode outcome database
//   - Workflow: interrupt handling grace period
type Config struct {
	Paths         Paths         `toml:"paths"`
	Encoding      Encoding      `toml:"encoding"`
	Watch         Watch         `toml:"watch"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	History       History       `toml:"history"`
	Workflow      Workflow      `toml:"workflow"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hopper/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/hopper/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hopper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for operation. OutputDir is
// created on a best-effort basis so startup succeeds when external storage is
// temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// DraptoBinary returns the drapto executable name used by the CLI client.
func (c *Config) DraptoBinary() string {
	if bin := strings.TrimSpace(c.Encoding.DraptoBinary); bin != "" {
		return bin
	}
	return "drapto"
}

// StopGrace returns how long Stop waits for in-flight encodes to exit after
// cancellation.
func (c *Config) StopGrace() time.Duration {
	return time.Duration(c.Encoding.StopGraceSeconds) * time.Second
}

// Quiescence returns the watcher debounce window.
func (c *Config) Quiescence() time.Duration {
	return time.Duration(c.Watch.QuiescenceSeconds) * time.Second
}

// ShutdownGrace returns the interrupt grace period for flushing log sinks.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Workflow.ShutdownGraceMS) * time.Millisecond
}

// NotifyTimeout returns the per-request timeout for push notifications.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultHistoryPath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "hopper", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/hopper/history.db"
	}
	return filepath.Join(home, ".local", "share", "hopper", "history.db")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
