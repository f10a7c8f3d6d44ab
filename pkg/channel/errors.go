package channel

import (
	"errors"
	"fmt"
)

// Sentinel errors for call-path failures.
var (
	// ErrNotConnected is returned when a call is attempted while the
	// transport is not open. No pending entry is registered.
	ErrNotConnected = errors.New("channel: not connected")

	// ErrTimeout is returned when no response arrives within the call's
	// timeout. The pending entry is removed; a late response is a no-op.
	ErrTimeout = errors.New("channel: call timed out")

	// ErrClosed is returned to callers whose pending calls were abandoned
	// by the channel closing underneath them.
	ErrClosed = errors.New("channel: closed")
)

// RemoteError is a failure reported by the peer: either the method is
// unknown there (StatusNotFound) or its handler failed (StatusHandlerError).
type RemoteError struct {
	Code    int
	Message string
}

// Error returns the error message.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("channel: remote error %d: %s", e.Code, e.Message)
}
