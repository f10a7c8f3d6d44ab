package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for server lifecycle misuse.
var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("server: already started")

	// ErrNotStarted is returned when Stop is called before Start.
	ErrNotStarted = errors.New("server: not started")
)

// BindError reports a listening endpoint that could not be brought up.
type BindError struct {
	Addr string
	Err  error
}

// Error returns the error message.
func (e *BindError) Error() string {
	return fmt.Sprintf("server: bind %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *BindError) Unwrap() error {
	return e.Err
}
