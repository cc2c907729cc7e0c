package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"safework/internal/database"
	"safework/internal/safework"
)

// SQLiteBlobStore keeps blobs in the blobs table of a local SQLite file.
type SQLiteBlobStore struct {
	db    *sqlx.DB
	clock safework.Clock
}

var _ safework.BlobStore = (*SQLiteBlobStore)(nil)

// NewSQLiteBlobStore opens the database at path, migrating it if needed.
func NewSQLiteBlobStore(path string, clock safework.Clock) (*SQLiteBlobStore, error) {
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteBlobStore{db: db, clock: clock}, nil
}

func (s *SQLiteBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	const q = `
		INSERT INTO blobs (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, key, data, s.clock.Now().UTC()); err != nil {
		return fmt.Errorf("storing blob %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT key, data, updated_at FROM blobs WHERE key = ?`

	var row blobRow
	if err := s.db.GetContext(ctx, &row, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", safework.ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("reading blob %s: %w", key, err)
	}
	return row.Data, nil
}

func (s *SQLiteBlobStore) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM blobs WHERE key = ?`
	if _, err := s.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("deleting blob %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteBlobStore) ValidateSetup(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite blob store not reachable: %w", err)
	}
	return nil
}

// Keys lists every stored key with its last write time, newest first.
func (s *SQLiteBlobStore) Keys(ctx context.Context) ([]BlobInfo, error) {
	const q = `SELECT key, updated_at FROM blobs ORDER BY updated_at DESC, key`

	var infos []BlobInfo
	if err := s.db.SelectContext(ctx, &infos, q); err != nil {
		return nil, fmt.Errorf("listing blobs: %w", err)
	}
	return infos, nil
}

func (s *SQLiteBlobStore) Close() error {
	return s.db.Close()
}
