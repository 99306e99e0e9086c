package session

import (
	"errors"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"hopper/internal/encoder"
	"hopper/internal/logging"
	"hopper/internal/shutdown"
)

// startKeyListener enables interactive controls when stdin is a terminal:
// space or p toggles pause/resume, q requests a graceful stop. The returned
// func restores the terminal state.
func startKeyListener(enc *encoder.Encoder, coord *shutdown.Coordinator, logger *slog.Logger, opts Options) func() {
	if !opts.Interactive || !isatty.IsTerminal(os.Stdin.Fd()) {
		return func() {}
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Debug("raw terminal mode unavailable; key controls disabled", logging.Error(err))
		return func() {}
	}

	logger.Info("interactive controls enabled (space/p pause-resume, q quit)",
		logging.String(logging.FieldEventType, "keys_enabled"),
	)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				return
			}
			switch buf[0] {
			case ' ', 'p', 'P':
				togglePause(enc, logger)
			case 'q', 'Q', 3: // ctrl-c arrives as a byte in raw mode
				coord.Interrupt()
			}
		}
	}()

	return func() { _ = term.Restore(fd, oldState) }
}

func togglePause(enc *encoder.Encoder, logger *slog.Logger) {
	var err error
	if enc.Paused() {
		err = enc.Resume()
	} else {
		err = enc.Pause()
	}
	switch {
	case err == nil:
	case errors.Is(err, encoder.ErrDraining):
		logger.Warn("resume rejected; in-flight encodes still draining")
	case errors.Is(err, encoder.ErrNotRunning), errors.Is(err, encoder.ErrNotPaused):
		logger.Debug("pause toggle ignored", logging.Error(err))
	default:
		logger.Warn("pause toggle failed", logging.Error(err))
	}
}
