package ann

import "fmt"

const (
	// DefaultForestSize is the default number of trees.
	DefaultForestSize = 8
	// DefaultMaxLeafSize is the default leaf capacity before a split.
	DefaultMaxLeafSize = 16
	// DefaultSeed seeds the per-tree random sources.
	DefaultSeed int64 = 1
)

type options struct {
	forestSize  int
	maxLeafSize int
	seed        int64
}

func defaultOptions() options {
	return options{
		forestSize:  DefaultForestSize,
		maxLeafSize: DefaultMaxLeafSize,
		seed:        DefaultSeed,
	}
}

// Option configures a Forest.
type Option func(*options)

// WithForestSize sets the number of trees.
func WithForestSize(n int) Option {
	return func(o *options) {
		o.forestSize = n
	}
}

// WithMaxLeafSize sets the number of points a leaf holds before it splits.
func WithMaxLeafSize(n int) Option {
	return func(o *options) {
		o.maxLeafSize = n
	}
}

// WithSeed sets the seed from which every tree derives its random source.
// Forests built from the same seed and insertion order are identical.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

func (o options) validate() error {
	if o.forestSize <= 0 {
		return fmt.Errorf("ann: forest size must be positive, got %d", o.forestSize)
	}
	if o.maxLeafSize <= 0 {
		return fmt.Errorf("ann: max leaf size must be positive, got %d", o.maxLeafSize)
	}
	return nil
}
