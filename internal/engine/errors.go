package engine

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by *Error.
var (
	ErrUnknownKey       = errors.New("unknown key column")
	ErrUnknownMeasure   = errors.New("unknown measure")
	ErrDuplicateMeasure = errors.New("measure present on both sides")
	ErrInvalidRange     = errors.New("start is after end")
)

// Error reports a caller fault inside the engine. Soft conditions such as a
// missing optional column or an empty view are never reported as errors.
type Error struct {
	Op      string
	Column  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s failed on column '%s': %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(op, column string, cause error) *Error {
	return &Error{Op: op, Column: column, Message: cause.Error(), Cause: cause}
}
