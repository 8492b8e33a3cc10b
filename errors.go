package percolator

import (
	"errors"
	"fmt"

	"github.com/hupe1980/percolator/collector"
)

var (
	// ErrClosed is returned when the percolator has been closed.
	ErrClosed = errors.New("percolator: closed")

	// ErrNoTarget is returned when a request has neither a document nor a
	// target searcher.
	ErrNoTarget = errors.New("percolator: request has no target")

	// ErrInvalidSize is returned for a negative request size.
	ErrInvalidSize = errors.New("percolator: size must not be negative")

	// ErrInvalidMode is returned for an unknown mode.
	ErrInvalidMode = errors.New("percolator: invalid mode")
)

// RequestError reports a failed request of a batch.
//
// The underlying error can be accessed via errors.Unwrap.
type RequestError struct {
	Index     int
	RequestID string
	cause     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %d (%s): %v", e.Index, e.RequestID, e.cause)
}

func (e *RequestError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, collector.ErrInvalidSize):
		return fmt.Errorf("%w: %w", ErrInvalidSize, err)
	case errors.Is(err, collector.ErrNoTarget):
		return fmt.Errorf("%w: %w", ErrNoTarget, err)
	}
	return err
}
