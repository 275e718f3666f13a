package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Store is an abstraction for persisting opaque values under string keys.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Deleter is implemented by stores that support removal.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate keys.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}
