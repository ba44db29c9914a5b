package obsws

import (
	"errors"
	"fmt"
)

// Domain errors for the obs-websocket client.
var (
	// ErrNotConnected is returned when a call is made without a live connection.
	ErrNotConnected = errors.New("obsws: not connected to OBS")

	// ErrConnectionFailed is returned when the websocket dial or handshake fails.
	ErrConnectionFailed = errors.New("obsws: connection to OBS failed")

	// ErrAuthFailed is returned when OBS rejects the supplied password.
	ErrAuthFailed = errors.New("obsws: authentication failed")

	// ErrPasswordRequired is returned when OBS requires authentication but
	// no password was configured.
	ErrPasswordRequired = errors.New("obsws: OBS requires a password")

	// ErrInvalidParams is returned when request parameters do not encode to
	// a JSON object.
	ErrInvalidParams = errors.New("obsws: request parameters must encode to a JSON object")

	// ErrTimeout is returned when no response arrives before the deadline.
	ErrTimeout = errors.New("obsws: request timed out")

	// ErrClosed is returned for calls interrupted by Close.
	ErrClosed = errors.New("obsws: client closed")
)

// RequestError is a failure reported by OBS in a response with status "error".
type RequestError struct {
	// RequestType is the request that failed (e.g. "SetCurrentScene").
	RequestType string

	// Reason is the error string OBS returned, verbatim.
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("obsws: %s rejected: %s", e.RequestType, e.Reason)
}
