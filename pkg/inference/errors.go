package inference

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoCandidates is returned when no model locations were configured.
	ErrNoCandidates = errors.New("inference: no model candidates")

	// ErrModelNotFound is returned when a candidate location does not exist.
	ErrModelNotFound = errors.New("inference: model file not found")

	// ErrEmptyModel is returned when a candidate exists but yields an empty network.
	ErrEmptyModel = errors.New("inference: model loaded empty")

	// ErrEmptyInput is returned when Infer is called with an empty buffer.
	ErrEmptyInput = errors.New("inference: empty input buffer")

	// ErrEmptyOutput is returned when the forward pass produced nothing.
	ErrEmptyOutput = errors.New("inference: empty model output")

	// ErrUnexpectedShape is returned when output is neither [1,56,N] nor [1,N,56].
	ErrUnexpectedShape = errors.New("inference: unexpected output shape")

	// ErrClosed is returned when using an adapter after Close.
	ErrClosed = errors.New("inference: adapter closed")
)

// CandidateError wraps a load failure with the location that was tried.
type CandidateError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CandidateError) Error() string {
	return fmt.Sprintf("inference [%s]: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *CandidateError) Unwrap() error {
	return e.Err
}

// LoadError aggregates failures from every candidate location. It is terminal:
// the pipeline does not retry after receiving it.
type LoadError struct {
	Errors []error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if len(e.Errors) == 0 {
		return "inference load: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("inference load: %v", e.Errors[0])
	}
	return fmt.Sprintf("inference load: all %d candidates failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *LoadError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}
