package eventstream

import "errors"

var (
	// ErrNilEvent indicates a nil event payload was provided to a publisher.
	ErrNilEvent = errors.New("nil event")

	// ErrQueueFull is returned by asynchronous publishers that dropped an
	// event because their buffer was full.
	ErrQueueFull = errors.New("event queue full, event dropped")
)
