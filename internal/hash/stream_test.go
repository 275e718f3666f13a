package hash

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_Deterministic(t *testing.T) {
	a := NewStream("apple")
	b := NewStream("apple")
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Bits(9), b.Bits(9), "bit group %d", i)
	}
}

func TestStream_DifferentSeeds(t *testing.T) {
	a := NewStream("apple")
	b := NewStream("banana")
	same := 0
	for i := 0; i < 256; i++ {
		if a.Bits(8) == b.Bits(8) {
			same++
		}
	}
	assert.Less(t, same, 16)
}

func TestStream_FirstBlockMatchesSHA256(t *testing.T) {
	s := NewStream("k")
	want := sha256.Sum256([]byte{'k', 0, 0, 0, 0})
	for i := 0; i < sha256.Size; i++ {
		assert.Equal(t, uint32(want[i]), s.Bits(8))
	}
	// Crossing into block 1.
	next := sha256.Sum256([]byte{'k', 0, 0, 0, 1})
	assert.Equal(t, uint32(next[0]), s.Bits(8))
}

func TestStream_BitsLSBFirst(t *testing.T) {
	s := NewStream("k")
	want := sha256.Sum256([]byte{'k', 0, 0, 0, 0})
	for b := 0; b < 8; b++ {
		assert.Equal(t, (want[0]>>b)&1 == 1, s.Bit())
	}
}

func TestStream_GroupsSpanBytes(t *testing.T) {
	s := NewStream("k")
	want := sha256.Sum256([]byte{'k', 0, 0, 0, 0})
	got := s.Bits(9)
	assert.Equal(t, uint32(want[0])|uint32(want[1]&1)<<8, got)
	assert.Less(t, s.Bits(5), uint32(32))
}

func TestSum64_Stable(t *testing.T) {
	assert.Equal(t, Sum64([]byte("ab")), Sum64([]byte("a"), []byte("b")))
	assert.NotEqual(t, Sum64([]byte("a")), Sum64([]byte("b")))
}

func TestCRC32C(t *testing.T) {
	data := []byte("hypervec")
	h := NewCRC32C()
	_, _ = h.Write(data[:4])
	_, _ = h.Write(data[4:])
	assert.Equal(t, CRC32C(data), h.Sum32())
}
