package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrMissingDateColumn is fatal: nothing downstream can run without dates.
	ErrMissingDateColumn = errors.New("date column not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrSheetNotFound     = errors.New("sheet not found")
)

// Error describes a failure to turn a file into a dataset.
type Error struct {
	Op      string
	Path    string
	Column  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	name := filepath.Base(e.Path)
	if e.Column != "" {
		return fmt.Sprintf("%s %s: column '%s': %s", e.Op, name, e.Column, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, name, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }
