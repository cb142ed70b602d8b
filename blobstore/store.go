package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when an artifact does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`, so
// local filesystem misses satisfy it without translation.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for persisting immutable run artifacts
// (summaries, cluster exports, match pair dumps).
//
// Keys are slash-separated paths, typically "<run-id>/<artifact>.<codec>".
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes an artifact atomically, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads an artifact in full. Returns ErrNotFound if the key
	// does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether the key exists without fetching its data.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes an artifact. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
