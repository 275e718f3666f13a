// Package sparse implements the Z16384 sparse hypervector algebra.
//
// A Vector stores only its non-zero coordinates. Typical item vectors carry
// 2-5 coordinates out of a large index space, which makes them cheap to
// move and compare compared with dense 100k-dimension vectors.
package sparse

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/hypervec/internal/hash"
)

// Modulus is the value domain of every coordinate.
const Modulus = 16384

// DefaultDimensions is the coordinate space used when none is configured.
const DefaultDimensions = 16384

// ErrValueOutOfRange is returned by Validate for values outside (0, Modulus).
var ErrValueOutOfRange = errors.New("sparse: value out of range")

// Vector maps coordinate index to a value in [1, Modulus).
// Absent coordinates are implicitly zero.
type Vector map[uint32]uint16

// Generate derives a deterministic sparse vector for id.
//
// For each of sparsity iterations a coordinate (uniform mod dims) and a
// value (uniform mod Modulus) are drawn from SHA-256 of the id seed and the
// iteration. Colliding coordinates overwrite, so the result may hold fewer
// than sparsity entries. A drawn value of zero leaves the coordinate absent.
func Generate(id string, dims uint32, sparsity int) Vector {
	v := make(Vector, max(sparsity, 0))
	if dims == 0 {
		return v
	}
	seed := hash.Sum256([]byte(id))
	var iter [4]byte
	for i := 0; i < sparsity; i++ {
		binary.BigEndian.PutUint32(iter[:], uint32(i))
		coord := uint32(hash.Sum64(seed[:], iter[:], []byte("c")) % uint64(dims))
		val := uint16(hash.Sum64(seed[:], iter[:], []byte("v")) % Modulus)
		if val == 0 {
			delete(v, coord)
			continue
		}
		v[coord] = val
	}
	return v
}

// Add returns the union of a and b. Coordinates present in both are summed
// mod Modulus; a sum that wraps to zero drops the coordinate.
func Add(a, b Vector) Vector {
	out := make(Vector, len(a)+len(b))
	for k, x := range a {
		out[k] = x
	}
	for k, y := range b {
		s := (uint32(out[k]) + uint32(y)) % Modulus
		if s == 0 {
			delete(out, k)
			continue
		}
		out[k] = uint16(s)
	}
	return out
}

// Similarity returns the un-normalized dot product over the shared support
// of query and document. It iterates the smaller map.
func Similarity(query, document Vector) float64 {
	small, large := query, document
	if len(large) < len(small) {
		small, large = large, small
	}
	var sum float64
	for k, x := range small {
		if y, ok := large[k]; ok {
			sum += float64(x) * float64(y)
		}
	}
	return sum
}

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// Equal reports whether v and o hold the same coordinates and values.
func (v Vector) Equal(o Vector) bool {
	if len(v) != len(o) {
		return false
	}
	for k, x := range v {
		if y, ok := o[k]; !ok || y != x {
			return false
		}
	}
	return true
}

// Keys returns the coordinates in ascending order.
func (v Vector) Keys() []uint32 {
	keys := make([]uint32, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Support returns the set of non-zero coordinates as a bitmap.
func (v Vector) Support() *roaring.Bitmap {
	return roaring.BitmapOf(v.Keys()...)
}

// Validate checks that every value lies in [1, Modulus).
func (v Vector) Validate() error {
	for k, x := range v {
		if x == 0 || x >= Modulus {
			return fmt.Errorf("%w: coordinate %d = %d", ErrValueOutOfRange, k, x)
		}
	}
	return nil
}
