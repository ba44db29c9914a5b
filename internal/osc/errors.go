package osc

import "errors"

// Domain errors for the OSC transport.
var (
	// ErrInvalidAddress is returned when an outbound address pattern does
	// not start with "/".
	ErrInvalidAddress = errors.New("osc: invalid address pattern")

	// ErrUnsupportedArgument is returned when an outbound argument has a
	// type OSC cannot carry.
	ErrUnsupportedArgument = errors.New("osc: unsupported argument type")

	// ErrSendFailed is returned when a datagram could not be sent.
	ErrSendFailed = errors.New("osc: send failed")

	// ErrListenFailed is returned when the UDP listener cannot be opened.
	ErrListenFailed = errors.New("osc: listen failed")

	// ErrServerClosed is returned by Serve after Close.
	ErrServerClosed = errors.New("osc: server closed")
)
