package hdc

import (
	"github.com/hupe1980/hypervec/distance"
	"github.com/hupe1980/hypervec/internal/hash"
)

// Vector is a dense hypervector with float32 components.
type Vector []float32

// New returns the all-zero Vector of the given dimension.
func New(dims int) Vector {
	if dims < 0 {
		dims = 0
	}
	return make(Vector, dims)
}

// Generate returns a deterministic bipolar Vector for seed.
// Bit 1 maps to +1 and bit 0 maps to -1.
func Generate(dims int, seed string) Vector {
	v := New(dims)
	s := hash.NewStream(seed)
	for i := range v {
		if s.Bit() {
			v[i] = 1
		} else {
			v[i] = -1
		}
	}
	return v
}

// Dims returns the number of components.
func (v Vector) Dims() int { return len(v) }

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Negate returns -v.
func (v Vector) Negate() Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

// Bind associates a and b by elementwise multiplication.
// For bipolar operands the result is bipolar and Bind(Bind(a, b), b) == a.
func Bind(a, b Vector) (Vector, error) {
	if len(a) != len(b) {
		return nil, &ErrDimensionMismatch{Expected: len(a), Actual: len(b)}
	}
	out := make(Vector, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out, nil
}

// Bundle returns the elementwise sum of vecs. No normalization is applied,
// so magnitude grows with the number of inputs.
func Bundle(vecs ...Vector) (Vector, error) {
	if len(vecs) == 0 {
		return nil, ErrEmpty
	}
	dims := len(vecs[0])
	for _, v := range vecs[1:] {
		if len(v) != dims {
			return nil, &ErrDimensionMismatch{Expected: dims, Actual: len(v)}
		}
	}
	out := vecs[0].Clone()
	for _, v := range vecs[1:] {
		for i, x := range v {
			out[i] += x
		}
	}
	return out, nil
}

// BundleInto adds src into dst in place.
func BundleInto(dst, src Vector) error {
	if len(dst) != len(src) {
		return &ErrDimensionMismatch{Expected: len(dst), Actual: len(src)}
	}
	for i, x := range src {
		dst[i] += x
	}
	return nil
}

// Permute circularly shifts v right by shift positions:
// result[(i+shift) mod n] = v[i]. Negative shifts rotate left, so
// Permute(Permute(v, k), -k) == v.
func Permute(v Vector, shift int) Vector {
	n := len(v)
	out := make(Vector, n)
	if n == 0 {
		return out
	}
	s := normShift(shift, n)
	copy(out[s:], v[:n-s])
	copy(out[:s], v[n-s:])
	return out
}

// Normalize returns v divided by its Euclidean norm.
// The zero vector is returned unchanged (as a copy).
func Normalize(v Vector) Vector {
	out := v.Clone()
	distance.NormalizeL2InPlace(out)
	return out
}

// Similarity returns the cosine similarity of a and b, or 0 if either has
// zero magnitude.
func Similarity(a, b Vector) (float32, error) {
	if len(a) != len(b) {
		return 0, &ErrDimensionMismatch{Expected: len(a), Actual: len(b)}
	}
	return distance.Cosine(a, b), nil
}

func normShift(shift, n int) int {
	return ((shift % n) + n) % n
}
