package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFact is returned by AddStructuredFact for an empty role map.
	ErrEmptyFact = errors.New("profile: structured fact has no roles")

	// ErrCorrupt is returned by Load for a frame that fails validation.
	ErrCorrupt = errors.New("profile: corrupt profile frame")
)

// ErrUnknownDimension is returned when an operation names a dimension the
// accumulator does not maintain.
type ErrUnknownDimension struct {
	Dimension int
}

func (e *ErrUnknownDimension) Error() string {
	return fmt.Sprintf("profile: dimension %d is not maintained", e.Dimension)
}
