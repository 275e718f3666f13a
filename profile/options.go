package profile

import (
	"fmt"
	"math"

	"github.com/hupe1980/hypervec/hdc"
)

// DefaultDimensions are the profile sizes maintained when none are configured.
var DefaultDimensions = []int{10000, 100000}

// DefaultQuantizeScale maps a normalized component to the int16 range.
const DefaultQuantizeScale = math.MaxInt16

type options struct {
	dimensions    []int
	factModulus   hdc.Modulus
	quantizeScale float64
}

func defaultOptions() options {
	return options{
		dimensions:    append([]int(nil), DefaultDimensions...),
		factModulus:   hdc.Z512,
		quantizeScale: DefaultQuantizeScale,
	}
}

// Option configures an Accumulator.
type Option func(*options)

// WithDimensions sets the dimensions of the maintained profiles. Order is
// significant for Sync.
func WithDimensions(dims ...int) Option {
	return func(o *options) {
		o.dimensions = append([]int(nil), dims...)
	}
}

// WithFactModulus selects the cyclic group used for structured facts.
func WithFactModulus(m hdc.Modulus) Option {
	return func(o *options) {
		o.factModulus = m
	}
}

// WithQuantizeScale sets the fixed-point scale used by ExportQuantized.
func WithQuantizeScale(s float64) Option {
	return func(o *options) {
		o.quantizeScale = s
	}
}

func (o options) validate() error {
	if len(o.dimensions) == 0 {
		return fmt.Errorf("profile: at least one dimension is required")
	}
	seen := make(map[int]struct{}, len(o.dimensions))
	for _, d := range o.dimensions {
		if d <= 0 {
			return fmt.Errorf("profile: dimension must be positive, got %d", d)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("profile: duplicate dimension %d", d)
		}
		seen[d] = struct{}{}
	}
	if !o.factModulus.Valid() {
		return fmt.Errorf("profile: %w: %d", hdc.ErrInvalidModulus, o.factModulus)
	}
	if !(o.quantizeScale > 0 && o.quantizeScale <= math.MaxInt16) {
		return fmt.Errorf("profile: quantize scale must be in (0, %d], got %v", math.MaxInt16, o.quantizeScale)
	}
	return nil
}
