package tts

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnavailable = errors.New("endpoint unreachable or transport failure")
	ErrStatus      = errors.New("unexpected response status")
	ErrRateLimited = errors.New("rate limited by endpoint")
	ErrEmptyAudio  = errors.New("empty audio payload")
	ErrSuppressed  = errors.New("recent failure, fetch suppressed")
)

// Error is a rich error type that wraps the sentinel errors with context.
type Error struct {
	Sentinel error
	Op       string
	Word     string
	Status   int
	Err      error // nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("tts: %s %q: %v", e.Op, e.Word, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}
