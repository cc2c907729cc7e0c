package testutil

import (
	"context"
	"fmt"
	"sync"

	"safework/internal/blob"
	"safework/internal/safework"
)

// NewTestBlobStore creates a new in-memory blob store for testing.
func NewTestBlobStore() *blob.MemoryBlobStore {
	return blob.NewMemoryBlobStore()
}

// FlakyBlobStore wraps a MemoryBlobStore and fails every Put while Fail is
// set. It counts Put attempts.
type FlakyBlobStore struct {
	*blob.MemoryBlobStore

	mu   sync.Mutex
	fail bool
	puts int
}

var _ safework.BlobStore = (*FlakyBlobStore)(nil)

func NewFlakyBlobStore() *FlakyBlobStore {
	return &FlakyBlobStore{MemoryBlobStore: blob.NewMemoryBlobStore()}
}

// SetFail makes subsequent Puts fail (true) or succeed (false).
func (s *FlakyBlobStore) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Puts returns the number of Put calls, failed ones included.
func (s *FlakyBlobStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func (s *FlakyBlobStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.puts++
	fail := s.fail
	s.mu.Unlock()

	if fail {
		return fmt.Errorf("simulated write failure for %s", key)
	}
	return s.MemoryBlobStore.Put(ctx, key, data)
}
