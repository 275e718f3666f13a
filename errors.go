package hypervec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hypervec/anchor"
	"github.com/hupe1980/hypervec/ann"
	"github.com/hupe1980/hypervec/hdc"
	"github.com/hupe1980/hypervec/kv"
	"github.com/hupe1980/hypervec/pipeline"
	"github.com/hupe1980/hypervec/profile"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidInput is returned for empty or malformed events.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine closed")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("engine already started")
)

// ErrDimensionMismatch indicates a vector dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates a dimension the engine does not maintain.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *hdc.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var ud *profile.ErrUnknownDimension
	if errors.As(err, &ud) {
		return &ErrInvalidDimension{Dimension: ud.Dimension, cause: err}
	}

	switch {
	case errors.Is(err, ann.ErrInvalidK):
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	case errors.Is(err, anchor.ErrInvalidInput),
		errors.Is(err, ann.ErrMissingVector),
		errors.Is(err, profile.ErrEmptyFact):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, pipeline.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, kv.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
