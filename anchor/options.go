package anchor

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/hypervec/sparse"
)

// Strategy selects how anchors are compressed to MaxDimensions.
type Strategy uint8

const (
	// ByValue keeps the K coordinates with the largest values.
	ByValue Strategy = iota
	// ByFrequency keeps the K most reinforced coordinates.
	ByFrequency
)

func (s Strategy) String() string {
	switch s {
	case ByValue:
		return "value"
	case ByFrequency:
		return "frequency"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// ParseStrategy maps "value" or "frequency" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "value":
		return ByValue, nil
	case "frequency":
		return ByFrequency, nil
	default:
		return 0, fmt.Errorf("anchor: unknown strategy %q", name)
	}
}

const (
	// DefaultMaxDimensions is the default per-anchor coordinate cap.
	DefaultMaxDimensions = 100
	// DefaultTolerance is the default circular value distance for a match.
	DefaultTolerance = 256
)

type options struct {
	maxDimensions int
	tolerance     uint16
	strategy      Strategy
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		maxDimensions: DefaultMaxDimensions,
		tolerance:     DefaultTolerance,
		strategy:      ByValue,
		logger:        slog.New(slog.DiscardHandler),
	}
}

// Option configures a Learner.
type Option func(*options)

// WithMaxDimensions sets the maximum coordinate count per anchor.
func WithMaxDimensions(n int) Option {
	return func(o *options) {
		o.maxDimensions = n
	}
}

// WithTolerance sets the maximum circular distance between two values for a
// shared coordinate to count as a match. Values above Modulus/2 match
// everything.
func WithTolerance(t uint16) Option {
	return func(o *options) {
		o.tolerance = t
	}
}

// WithStrategy sets the compression strategy.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithLogger sets the logger. Learn decisions are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func (o options) validate() error {
	if o.maxDimensions <= 0 {
		return fmt.Errorf("anchor: max dimensions must be positive, got %d", o.maxDimensions)
	}
	if o.tolerance >= sparse.Modulus {
		return fmt.Errorf("anchor: tolerance %d exceeds modulus %d", o.tolerance, sparse.Modulus)
	}
	if o.strategy > ByFrequency {
		return fmt.Errorf("anchor: unknown strategy %v", o.strategy)
	}
	return nil
}
