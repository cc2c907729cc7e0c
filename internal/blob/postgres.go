package blob

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"safework/internal/database"
	"safework/internal/safework"
)

const blobsTableName = "safework.blobs"

var blobColumns = []string{"key", "data", "updated_at"}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// PostgresBlobStore keeps blobs in the safework.blobs table of a hosted
// Postgres database.
type PostgresBlobStore struct {
	pool  *pgxpool.Pool
	clock safework.Clock
}

var _ safework.BlobStore = (*PostgresBlobStore)(nil)

// NewPostgresBlobStore migrates and connects to databaseURL.
func NewPostgresBlobStore(ctx context.Context, databaseURL string, clock safework.Clock) (*PostgresBlobStore, error) {
	pool, err := database.ConnectPostgres(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &PostgresBlobStore{pool: pool, clock: clock}, nil
}

func (s *PostgresBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	query, args, err := psql().
		Insert(blobsTableName).
		Columns(blobColumns...).
		Values(key, data, s.clock.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate blob upsert query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

func (s *PostgresBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := psql().
		Select(blobColumns...).
		From(blobsTableName).
		Where(sq.Eq{"key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate blob query: %w", err)
	}

	var row blobRow
	if err := pgxscan.Get(ctx, s.pool, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("%w: %s", safework.ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("failed to fetch blob %s: %w", key, err)
	}
	return row.Data, nil
}

func (s *PostgresBlobStore) Delete(ctx context.Context, key string) error {
	query, args, err := psql().
		Delete(blobsTableName).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate blob delete query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *PostgresBlobStore) ValidateSetup(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres blob store not reachable: %w", err)
	}
	return nil
}

// Keys lists every stored key with its last write time, newest first.
func (s *PostgresBlobStore) Keys(ctx context.Context) ([]BlobInfo, error) {
	query, args, err := psql().
		Select("key", "updated_at").
		From(blobsTableName).
		OrderBy("updated_at DESC", "key ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate blob list query: %w", err)
	}

	var infos []BlobInfo
	if err := pgxscan.Select(ctx, s.pool, &infos, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	return infos, nil
}

func (s *PostgresBlobStore) Close() error {
	s.pool.Close()
	return nil
}
