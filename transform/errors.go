package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamClosed is returned for operations on a stream that has ended
	// or been closed.
	ErrStreamClosed = errors.New("transform: stream is closed")

	// ErrReentrantCall is returned when an observer calls back into the
	// stream that is currently notifying it.
	ErrReentrantCall = errors.New("transform: reentrant call from observer")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("transform: invalid input")

	// ErrProtocolViolation matches every *ProtocolViolationError.
	ErrProtocolViolation = errors.New("transform: protocol violation")
)

// ValidationError reports input a unit refused to transform.
type ValidationError struct {
	Unit   string
	Reason string
	Cause  error
}

// Validation builds a ValidationError for the named unit.
func Validation(unit, reason string, cause error) *ValidationError {
	return &ValidationError{Unit: unit, Reason: reason, Cause: cause}
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Unit, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Unit, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ProtocolViolationError reports a unit that broke the Transform contract.
type ProtocolViolationError struct {
	// Stage is the pipeline position of the offending unit, 0 for a
	// standalone unit.
	Stage     int
	Consumed  int
	Available int
	Reason    string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("transform: stage %d: %s (consumed %d of %d)",
		e.Stage, e.Reason, e.Consumed, e.Available)
}

func (e *ProtocolViolationError) Is(target error) bool { return target == ErrProtocolViolation }
