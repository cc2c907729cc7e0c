package safework

import "context"

// BlobStore is a durable key-value store for whole-dataset snapshots.
// Each Put replaces the value under key; there is no versioning and
// concurrent writers resolve as last-write-wins.
type BlobStore interface {
	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the value stored under key, or ErrBlobNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ValidateSetup verifies that the backend is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
