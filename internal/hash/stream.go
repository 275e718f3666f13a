package hash

import (
	"crypto/sha256"
	"encoding/binary"
)

// Stream is a deterministic pseudo-random bit source derived from a seed.
//
// Block i of the underlying byte stream is SHA-256(seed || uint32-be(i)).
// Bits are consumed least-significant first within each byte, so a group
// of n bits may span two or more bytes and blocks.
type Stream struct {
	seed    []byte
	counter uint32
	block   [sha256.Size]byte
	pos     int // next unread byte in block

	acc   uint64 // bit accumulator
	nbits uint   // valid bits in acc
}

// NewStream returns a Stream positioned at the first bit of block 0.
func NewStream(seed string) *Stream {
	s := &Stream{seed: []byte(seed)}
	s.refill()
	return s
}

func (s *Stream) refill() {
	buf := make([]byte, len(s.seed)+4)
	copy(buf, s.seed)
	binary.BigEndian.PutUint32(buf[len(s.seed):], s.counter)
	s.block = sha256.Sum256(buf)
	s.counter++
	s.pos = 0
}

func (s *Stream) nextByte() byte {
	if s.pos == len(s.block) {
		s.refill()
	}
	b := s.block[s.pos]
	s.pos++
	return b
}

// Bits returns the next n bits (1 <= n <= 32) as an unsigned integer.
func (s *Stream) Bits(n uint) uint32 {
	for s.nbits < n {
		s.acc |= uint64(s.nextByte()) << s.nbits
		s.nbits += 8
	}
	v := uint32(s.acc & (1<<n - 1))
	s.acc >>= n
	s.nbits -= n
	return v
}

// Bit returns the next single bit.
func (s *Stream) Bit() bool {
	return s.Bits(1) == 1
}

// Sum64 returns the first 8 bytes of SHA-256 over the concatenated parts,
// interpreted big-endian.
func Sum64(parts ...[]byte) uint64 {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var sum [sha256.Size]byte
	h.Sum(sum[:0])
	return binary.BigEndian.Uint64(sum[:8])
}

// Sum256 returns SHA-256 of data.
func Sum256(data []byte) [sha256.Size]byte {
	return sha256.Sum256(data)
}
