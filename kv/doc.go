// Package kv provides the key-value storage abstraction used to persist
// profiles and anchor sets.
//
// Store is the minimal contract the engine consumes:
//
//	type Store interface {
//	    Get(ctx, key) ([]byte, error)   // ErrNotFound when absent
//	    Set(ctx, key, value) error
//	}
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral sessions
//   - LocalStore: one file per key under a root directory, atomic replace
//   - CompressedStore: wraps any Store with LZ4 or ZSTD value compression
//   - kv/s3, kv/minio, kv/dynamodb, kv/sqlite: remote and embedded backends
//
// Failures are returned unchanged; callers own retry policy.
package kv
