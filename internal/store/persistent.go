package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"safework/internal/safework"
)

// DefaultKey is the blob key the dataset is stored under.
const DefaultKey = "safework-data"

// Persistent is a Registry mirrored to a single blob. Every successful
// mutation on any collection rewrites the whole snapshot. A failed write is
// logged and never rolls back the in-memory mutation.
type Persistent struct {
	*Registry

	blobs  safework.BlobStore
	key    string
	logger safework.Logger

	mu          sync.Mutex
	lastErr     error
	unsubscribe func()
}

// OpenPersistent loads the snapshot stored under key, or starts empty when
// the key does not exist yet, and begins persisting every mutation.
func OpenPersistent(ctx context.Context, blobs safework.BlobStore, key string, clock safework.Clock, logger safework.Logger) (*Persistent, error) {
	reg := NewRegistry(clock, logger)

	data, err := blobs.Get(ctx, key)
	switch {
	case errors.Is(err, safework.ErrBlobNotFound):
		logger.Info("no stored dataset, starting empty", "key", key)
	case err != nil:
		return nil, fmt.Errorf("reading dataset %s: %w", key, err)
	default:
		snap, err := DecodeSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("reading dataset %s: %w", key, err)
		}
		if err := reg.Load(snap); err != nil {
			return nil, fmt.Errorf("reading dataset %s: %w", key, err)
		}
		logger.Debug("dataset loaded", "key", key, "bytes", len(data))
	}

	p := &Persistent{
		Registry: reg,
		blobs:    blobs,
		key:      key,
		logger:   logger,
	}
	p.unsubscribe = reg.Subscribe(p.persist)
	return p, nil
}

// Save writes the current snapshot to the blob store.
func (p *Persistent) Save(ctx context.Context) error {
	data, err := EncodeSnapshot(p.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %w", safework.ErrPersistenceWrite, err)
	}
	if err := p.blobs.Put(ctx, p.key, data); err != nil {
		return fmt.Errorf("%w: writing %s: %w", safework.ErrPersistenceWrite, p.key, err)
	}
	return nil
}

// LastError returns the error of the most recent automatic write, or nil if
// it succeeded.
func (p *Persistent) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close stops persisting mutations. It does not close the blob store.
func (p *Persistent) Close() {
	p.unsubscribe()
}

func (p *Persistent) persist(change safework.Change) {
	err := p.Save(context.Background())

	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("persisting dataset failed",
			"key", p.key, "collection", change.Collection, "op", change.Op, "id", change.ID, "error", err)
	}
}
