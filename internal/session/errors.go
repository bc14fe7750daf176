package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFrame is returned by Process for frames that are empty, not
	// single-channel 8-bit, or not the configured size.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrClosed is returned by Process after Close.
	ErrClosed = errors.New("session closed")
)

// SetupError reports why a session could not be created.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("session setup: %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
