package hdc

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when Bundle is called with no vectors.
	ErrEmpty = errors.New("hdc: no vectors to bundle")

	// ErrModulusMismatch is returned when cyclic vectors from different
	// groups are combined.
	ErrModulusMismatch = errors.New("hdc: modulus mismatch")

	// ErrInvalidModulus is returned for a modulus other than Z32 or Z512.
	ErrInvalidModulus = errors.New("hdc: invalid modulus")
)

// ErrDimensionMismatch indicates two vectors of unequal length were passed
// to a binary operation.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("hdc: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrOutOfRange indicates a cyclic component outside [0, m).
type ErrOutOfRange struct {
	Index   int
	Value   uint16
	Modulus Modulus
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("hdc: component %d = %d out of range for Z%d", e.Index, e.Value, e.Modulus)
}
