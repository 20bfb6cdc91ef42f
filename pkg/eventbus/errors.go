package eventbus

import "errors"

// Sentinel errors for the eventbus package.
var (
	// ErrNotConnected indicates the client is not connected.
	ErrNotConnected = errors.New("eventbus: not connected")

	// ErrClosed indicates the client was closed.
	ErrClosed = errors.New("eventbus: client closed")

	// ErrRequestTimeout indicates a request/reply exchange timed out.
	ErrRequestTimeout = errors.New("eventbus: request timed out")

	// ErrReplyFailed indicates the service reported a failed request.
	ErrReplyFailed = errors.New("eventbus: request failed")
)
