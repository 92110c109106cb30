// Package store implements generation-scoped storage of captured HTTP
// responses. A generation is a named keyspace that is populated during
// install, read by the caching strategies while active, and deleted as a
// whole once superseded.
package store

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the generation.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is invalid or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrNotStorable indicates the entry may not be written, e.g. because
	// its status is not a success status.
	ErrNotStorable = errors.New("entry not storable")
)

// Store is the interface for generation-scoped response storage.
//
// Implementations must be safe for concurrent use: many intercepted requests
// read and write independently, and the design adds no locking beyond what
// the backend provides.
type Store interface {
	// Get returns the entry stored under key in the named generation.
	// Returns ErrCacheMiss if the generation or key does not exist.
	Get(ctx context.Context, generation string, key Key) (*Entry, error)

	// Put stores an entry under key in the named generation, creating the
	// generation if needed. A write is a full replace of any prior entry.
	// Only success (2xx) entries are accepted; anything else returns
	// ErrNotStorable.
	Put(ctx context.Context, generation string, key Key, entry *Entry) error

	// DeleteGeneration removes the named generation and all of its entries.
	// Deleting a generation that does not exist is not an error.
	DeleteGeneration(ctx context.Context, generation string) error

	// Generations returns the names of all generations currently present.
	Generations(ctx context.Context) ([]string, error)
}

// storable reports whether an entry satisfies the write invariant:
// only 2xx responses are ever written to a generation.
func storable(entry *Entry) bool {
	return entry != nil && entry.StatusCode >= 200 && entry.StatusCode < 300
}
