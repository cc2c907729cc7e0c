package blob

import (
	"context"
	"fmt"
	"sync"

	"safework/internal/safework"
)

// MemoryBlobStore is an in-memory implementation of safework.BlobStore.
// It keeps every value in a map, making it useful for tests and for running
// without durable storage. This implementation is safe for concurrent use.
type MemoryBlobStore struct {
	blobs map[string][]byte
	mu    sync.RWMutex
}

var _ safework.BlobStore = (*MemoryBlobStore)(nil)

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

// Put stores a copy of data under key.
func (m *MemoryBlobStore) Put(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

// Get returns a copy of the value stored under key.
func (m *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", safework.ErrBlobNotFound, key)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBlobStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, key)
	return nil
}

// ValidateSetup always succeeds for memory blob stores.
func (m *MemoryBlobStore) ValidateSetup(context.Context) error {
	return nil
}
