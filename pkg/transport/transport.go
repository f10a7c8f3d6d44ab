// Package transport abstracts the duplex frame connection a Channel runs
// over, and provides the WebSocket implementation used in production. The
// interface carries discrete text frames; ordering is the connection's.
package transport

import (
	"errors"
	"fmt"
)

// Transport is a duplex, frame-oriented connection. Send and Receive carry
// whole frames; Receive blocks until a frame arrives or the connection ends.
// When the peer closed the connection, Receive returns a *CloseError so the
// owner can observe the close code and reason; any other error means the
// connection failed.
type Transport interface {
	Send(data []byte) error
	Receive() ([]byte, error)
	IsOpen() bool
	Close() error
}

// ErrNotOpen is returned by Send when the connection is no longer open.
var ErrNotOpen = errors.New("transport: not open")

// CloseError reports that the connection was closed, with the close code and
// reason supplied by whichever side initiated it.
type CloseError struct {
	Code   int
	Reason string
}

// Error returns the error message.
func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transport: closed with code %d", e.Code)
	}
	return fmt.Sprintf("transport: closed with code %d: %s", e.Code, e.Reason)
}

// DialError reports a failed connection attempt.
type DialError struct {
	URL    string
	Status string
	Err    error
}

// Error returns the error message.
func (e *DialError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("transport: dial %s: %v (status: %s)", e.URL, e.Err, e.Status)
	}
	return fmt.Sprintf("transport: dial %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *DialError) Unwrap() error {
	return e.Err
}
