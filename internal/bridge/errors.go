package bridge

import (
	"errors"
	"fmt"
)

// Domain errors for the bridge package.
var (
	// ErrInvalidAddress is returned when an inbound address is empty or does
	// not begin with "/".
	ErrInvalidAddress = errors.New("bridge: invalid address")

	// ErrUnrecognizedCommand is returned when no route matches a message.
	ErrUnrecognizedCommand = errors.New("bridge: unrecognized command")

	// ErrInvalidSyntax is returned when a matched command has arguments or
	// path segments that cannot be shaped into a request.
	ErrInvalidSyntax = errors.New("bridge: invalid syntax")

	// ErrInvalidTransition is returned for transition names outside the
	// supported set.
	ErrInvalidTransition = errors.New("bridge: invalid transition name")

	// ErrSceneNotFound is returned when OBS reports the requested scene does
	// not exist.
	ErrSceneNotFound = errors.New("bridge: scene does not exist")

	// ErrStudioModeDisabled is returned when a preview is requested while
	// studio mode is off.
	ErrStudioModeDisabled = errors.New("bridge: studio mode not enabled")

	// ErrEmptySceneList is returned when navigation finds no scenes.
	ErrEmptySceneList = errors.New("bridge: scene list is empty")

	// ErrQueueFull is returned when the dispatcher cannot accept a command.
	ErrQueueFull = errors.New("bridge: command queue full")

	// ErrNotStarted is returned when commands arrive before Start or after Stop.
	ErrNotStarted = errors.New("bridge: not started")
)

// RangeError reports a scene index outside the current scene list.
type RangeError struct {
	// Index is the zero-based index derived from the console value.
	Index int

	// Count is the number of scenes OBS reported.
	Count int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("bridge: index exceeds scene count (index %d, %d scenes)", e.Index, e.Count)
}
