// Package blobstore provides storage abstraction for run artifacts.
//
// Store is the interface for reading and writing whole artifacts.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: In-memory, for tests and ephemeral runs
//   - LocalStore: Local filesystem with atomic writes and mmap reads
//   - s3.Store: Amazon S3 with checksummed and multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Custom Implementations
//
// Implement the Store interface to support custom backends:
//
//	type Store interface {
//	    Put(ctx, key, data) error          // Atomic write
//	    Get(ctx, key) ([]byte, error)      // Full read
//	    Exists(ctx, key) (bool, error)
//	    Delete(ctx, key) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Get must return an error satisfying errors.Is(err, ErrNotFound) for
// missing keys.
package blobstore
