package hdc

import (
	"github.com/hupe1980/hypervec/distance"
	"github.com/hupe1980/hypervec/internal/hash"
)

// Modulus identifies a finite cyclic group Zm.
type Modulus uint16

const (
	// Z32 is the cyclic group of order 32 (5 bits per component).
	Z32 Modulus = 32
	// Z512 is the cyclic group of order 512 (9 bits per component).
	Z512 Modulus = 512
)

// Valid reports whether m is a supported group.
func (m Modulus) Valid() bool { return m == Z32 || m == Z512 }

// Bits returns the number of stream bits consumed per component.
func (m Modulus) Bits() uint {
	switch m {
	case Z32:
		return 5
	case Z512:
		return 9
	default:
		return 0
	}
}

// Zero returns the identity element of Zm^dims.
func (m Modulus) Zero(dims int) Cyclic {
	if dims < 0 {
		dims = 0
	}
	return Cyclic{mod: m, data: make([]uint16, dims)}
}

// Generate returns a deterministic Cyclic vector for seed.
func (m Modulus) Generate(dims int, seed string) Cyclic {
	c := m.Zero(dims)
	s := hash.NewStream(seed)
	n := m.Bits()
	for i := range c.data {
		// Powers of two: an n-bit group is already in [0, m).
		c.data[i] = uint16(s.Bits(n))
	}
	return c
}

// Cyclic is a dense hypervector over Zm. The zero value is an empty vector.
type Cyclic struct {
	mod  Modulus
	data []uint16
}

// NewCyclic builds a Cyclic vector from values, which must all lie in [0, m).
func NewCyclic(m Modulus, values []uint16) (Cyclic, error) {
	if !m.Valid() {
		return Cyclic{}, ErrInvalidModulus
	}
	data := make([]uint16, len(values))
	for i, v := range values {
		if v >= uint16(m) {
			return Cyclic{}, &ErrOutOfRange{Index: i, Value: v, Modulus: m}
		}
		data[i] = v
	}
	return Cyclic{mod: m, data: data}, nil
}

// Modulus returns the group order.
func (c Cyclic) Modulus() Modulus { return c.mod }

// Dims returns the number of components.
func (c Cyclic) Dims() int { return len(c.data) }

// At returns component i.
func (c Cyclic) At(i int) uint16 { return c.data[i] }

// Values returns a copy of the components.
func (c Cyclic) Values() []uint16 {
	out := make([]uint16, len(c.data))
	copy(out, c.data)
	return out
}

// Equal reports whether c and o have the same group and components.
func (c Cyclic) Equal(o Cyclic) bool {
	if c.mod != o.mod || len(c.data) != len(o.data) {
		return false
	}
	for i := range c.data {
		if c.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// Permute circularly shifts c right by shift positions.
func (c Cyclic) Permute(shift int) Cyclic {
	n := len(c.data)
	out := c.mod.Zero(n)
	if n == 0 {
		return out
	}
	s := normShift(shift, n)
	copy(out.data[s:], c.data[:n-s])
	copy(out.data[:s], c.data[n-s:])
	return out
}

// Inverse returns the additive inverse, so BindCyclic(c, c.Inverse()) is zero.
func (c Cyclic) Inverse() Cyclic {
	out := c.mod.Zero(len(c.data))
	m := uint16(c.mod)
	for i, v := range c.data {
		out.data[i] = (m - v) % m
	}
	return out
}

// Float converts the components to a real-valued Vector.
func (c Cyclic) Float() Vector {
	out := make(Vector, len(c.data))
	for i, v := range c.data {
		out[i] = float32(v)
	}
	return out
}

// BindCyclic combines a and b by elementwise addition mod m.
func BindCyclic(a, b Cyclic) (Cyclic, error) {
	if err := compatible(a, b); err != nil {
		return Cyclic{}, err
	}
	out := a.mod.Zero(len(a.data))
	m := uint32(a.mod)
	for i := range a.data {
		out.data[i] = uint16((uint32(a.data[i]) + uint32(b.data[i])) % m)
	}
	return out, nil
}

// BundleCyclic sums vecs into a uint64 accumulator and reduces mod m.
func BundleCyclic(vecs ...Cyclic) (Cyclic, error) {
	if len(vecs) == 0 {
		return Cyclic{}, ErrEmpty
	}
	for _, v := range vecs[1:] {
		if err := compatible(vecs[0], v); err != nil {
			return Cyclic{}, err
		}
	}
	acc := make([]uint64, len(vecs[0].data))
	for _, v := range vecs {
		for i, x := range v.data {
			acc[i] += uint64(x)
		}
	}
	out := vecs[0].mod.Zero(len(acc))
	m := uint64(vecs[0].mod)
	for i, s := range acc {
		out.data[i] = uint16(s % m)
	}
	return out, nil
}

// CyclicSimilarity returns the cosine similarity of the numeric components.
func CyclicSimilarity(a, b Cyclic) (float32, error) {
	if err := compatible(a, b); err != nil {
		return 0, err
	}
	return distance.Cosine(a.Float(), b.Float()), nil
}

func compatible(a, b Cyclic) error {
	if a.mod != b.mod {
		return ErrModulusMismatch
	}
	if len(a.data) != len(b.data) {
		return &ErrDimensionMismatch{Expected: len(a.data), Actual: len(b.data)}
	}
	return nil
}
