package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"hopper/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_DATA_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "hopper", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "encoded") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Encoding.Concurrency != 1 {
		t.Fatalf("expected default concurrency 1, got %d", cfg.Encoding.Concurrency)
	}
	if !cfg.Encoding.UseLibrary {
		t.Fatal("expected library client enabled by default")
	}
	if cfg.Watch.QuiescenceSeconds != 2 {
		t.Fatalf("expected default quiescence 2s, got %d", cfg.Watch.QuiescenceSeconds)
	}
	if len(cfg.Watch.Extensions) == 0 || cfg.Watch.Extensions[0] != "mkv" {
		t.Fatalf("unexpected default extensions: %v", cfg.Watch.Extensions)
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected empty ntfy topic by default, got %q", cfg.Notifications.NtfyTopic)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.Workflow.ShutdownGraceMS != 500 {
		t.Fatalf("unexpected shutdown grace: %d", cfg.Workflow.ShutdownGraceMS)
	}
	if cfg.ShutdownGrace() != 500*time.Millisecond {
		t.Fatalf("unexpected shutdown grace duration: %v", cfg.ShutdownGrace())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hopper.toml")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Encoding struct {
			Concurrency   int    `toml:"concurrency"`
			PresetProfile string `toml:"preset_profile"`
		} `toml:"encoding"`
		Watch struct {
			QuiescenceSeconds int      `toml:"quiescence_seconds"`
			Extensions        []string `toml:"extensions"`
		} `toml:"watch"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Encoding.Concurrency = 3
	custom.Encoding.PresetProfile = "GrainyMovie"
	custom.Watch.QuiescenceSeconds = 5
	custom.Watch.Extensions = []string{".MKV", "mp4", "mkv", ""}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.OutputDir != custom.Paths.OutputDir {
		t.Fatalf("expected output dir from file, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Encoding.Concurrency != 3 {
		t.Fatalf("expected concurrency 3, got %d", cfg.Encoding.Concurrency)
	}
	if cfg.Encoding.PresetProfile != "grainymovie" {
		t.Fatalf("expected lowercased preset profile, got %q", cfg.Encoding.PresetProfile)
	}
	if cfg.Watch.QuiescenceSeconds != 5 {
		t.Fatalf("expected quiescence 5, got %d", cfg.Watch.QuiescenceSeconds)
	}
	want := []string{"mkv", "mp4"}
	if len(cfg.Watch.Extensions) != len(want) {
		t.Fatalf("expected deduped extensions %v, got %v", want, cfg.Watch.Extensions)
	}
	for i, ext := range want {
		if cfg.Watch.Extensions[i] != ext {
			t.Fatalf("expected extensions %v, got %v", want, cfg.Watch.Extensions)
		}
	}
}

func TestNtfyTopicEnvFallback(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HOPPER_NTFY_TOPIC", "hopper-alerts")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "hopper-alerts" {
		t.Fatalf("expected topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "output_dir") {
		t.Fatalf("sample config missing output_dir: %s", contents)
	}

	// Validate it decodes
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.LogDir, "hopper") {
		t.Fatalf("expected log dir to contain hopper, got %q", cfg.Paths.LogDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Encoding.Concurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive concurrency")
	}

	cfg = config.Default()
	cfg.Watch.QuiescenceSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive quiescence")
	}

	cfg = config.Default()
	cfg.Workflow.ShutdownGraceMS = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive shutdown grace")
	}

	cfg = config.Default()
	cfg.Paths.OutputDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty output dir")
	}

	cfg = config.Default()
	cfg.Paths.StagingDir = cfg.Paths.OutputDir
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when staging dir equals output dir")
	}

	cfg = config.Default()
	cfg.Encoding.UseLibrary = false
	cfg.Encoding.DraptoBinary = "   "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("blank binary should fall back to default name: %v", err)
	}
}
