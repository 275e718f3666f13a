// Package hash provides the hashing primitives used across hypervec.
//
// # Deterministic streams
//
// Stream turns a string seed into an endless, reproducible bit sequence by
// hashing the seed with an incrementing block counter (SHA-256). Vector
// generation reads 1, 5 or 9 bits per component from it, so the same
// (seed, dimension) pair always yields the same vector and no vector table
// has to be stored.
//
//	s := hash.NewStream("apple")
//	bit := s.Bit()
//	group := s.Bits(9)
//
// # CRC32-Castagnoli (CRC32C)
//
// Persisted frames (profiles) carry a CRC32C trailer. Go's crc32 package
// uses hardware instructions when available.
//
//	checksum := hash.CRC32C(data)
package hash
