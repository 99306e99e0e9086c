package drapto

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = strings.TrimSpace(binary)
		}
	}
}

// CLI wraps the drapto command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "drapto"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// progressEnvelope mirrors the JSON lines drapto emits with --progress-json.
type progressEnvelope struct {
	Type         string  `json:"type"`
	Percent      float64 `json:"percent"`
	Stage        string  `json:"stage"`
	Message      string  `json:"message"`
	ETASeconds   float64 `json:"eta_seconds"`
	Bitrate      string  `json:"bitrate"`
	Speed        float64 `json:"speed"`
	FPS          float64 `json:"fps"`
	TotalFrames  int64   `json:"total_frames"`
	CurrentFrame int64   `json:"current_frame"`
}

func (p progressEnvelope) toUpdate() ProgressUpdate {
	eventType := EventType(strings.TrimSpace(p.Type))
	if eventType == "" {
		eventType = EventTypeUnknown
	}
	return ProgressUpdate{
		Type:         eventType,
		Timestamp:    time.Now(),
		Percent:      p.Percent,
		Stage:        p.Stage,
		Message:      p.Message,
		ETA:          time.Duration(p.ETASeconds * float64(time.Second)),
		Bitrate:      p.Bitrate,
		Speed:        p.Speed,
		FPS:          p.FPS,
		TotalFrames:  p.TotalFrames,
		CurrentFrame: p.CurrentFrame,
	}
}

// Encode launches drapto encode and returns the output path.
func (c *CLI) Encode(ctx context.Context, inputPath, outputDir string, opts EncodeOptions) (string, error) {
	if inputPath == "" {
		return "", errors.New("input path required")
	}
	cleanOutputDir := strings.TrimSpace(outputDir)
	if cleanOutputDir == "" {
		return "", errors.New("output directory required")
	}

	outputPath := filepath.Join(cleanOutputDir, encodedName(inputPath))

	args := []string{
		"encode",
		"--input", inputPath,
		"--output", cleanOutputDir,
		"--responsive",
		"--no-log",
	}
	if profile := strings.TrimSpace(opts.PresetProfile); profile != "" && !strings.EqualFold(profile, "default") {
		args = append(args, "--drapto-preset", profile)
	}
	args = append(args, "--progress-json")

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start drapto: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Bytes()
		var payload progressEnvelope
		if err := json.Unmarshal(line, &payload); err != nil {
			continue
		}
		if opts.Progress != nil {
			opts.Progress(payload.toUpdate())
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read drapto output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("drapto encode failed: %w", err)
	}

	return outputPath, nil
}

var _ Client = (*CLI)(nil)
