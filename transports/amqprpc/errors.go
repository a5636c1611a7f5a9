package amqprpc

import "errors"

var (
	// ErrChannelClosed is returned when an operation is attempted on a
	// channel that completed an orderly shutdown, including a second Close.
	ErrChannelClosed = errors.New("amqprpc: channel is closed")

	// ErrChannelFaulted is returned when an operation is attempted on a
	// channel that terminated abnormally. Closing a faulted client surfaces
	// this fault unless the caller applies a safe-release policy.
	ErrChannelFaulted = errors.New("amqprpc: channel is faulted")

	// ErrCallTimeout is returned when no reply arrives within the call
	// timeout.
	ErrCallTimeout = errors.New("amqprpc: call timed out")

	// ErrInvalidConfiguration is returned for bad client options.
	ErrInvalidConfiguration = errors.New("amqprpc: invalid configuration")
)
