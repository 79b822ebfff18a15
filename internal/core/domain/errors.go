package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("file not found")
	ErrIsDirectory       = errors.New("is a directory")
	ErrUnsupportedFormat = errors.New("unsupported raster format")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidInput      = errors.New("invalid input")
)

// JobError ties a failure to the file that caused it
type JobError struct {
	Op   string // "validate input", "validate output", "convert", ...
	Path string
	Err  error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// NewJobError wraps err for path; kind is the sentinel the caller can match
func NewJobError(op, path string, kind error, detail string) *JobError {
	if detail == "" {
		return &JobError{Op: op, Path: path, Err: kind}
	}
	return &JobError{Op: op, Path: path, Err: fmt.Errorf("%w: %s", kind, detail)}
}
