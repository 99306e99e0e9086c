package encoder

import "errors"

// State is the encoder lifecycle phase. Stopped is terminal.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

var (
	// ErrInvalidTransition marks a lifecycle call made from a state that does
	// not permit it.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrNotRunning is returned by Pause when the encoder is not running.
	ErrNotRunning = errors.New("not running")
	// ErrNotPaused is returned by Resume when the encoder is not paused.
	ErrNotPaused = errors.New("not paused")
	// ErrDraining is returned by Resume while jobs dispatched before the
	// pause are still in flight. The request is rejected, not queued.
	ErrDraining = errors.New("in-flight work still draining")
	// ErrStopped marks intake attempts after the encoder has stopped.
	ErrStopped = errors.New("encoder stopped")
)

// isValidTransition enforces the allowed state machine edges.
func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateRunning || to == StateStopped
	case StateRunning:
		return to == StatePaused || to == StateStopped
	case StatePaused:
		return to == StateRunning || to == StateStopped
	default:
		return false
	}
}
