package blob

import (
	"context"
	"fmt"

	"safework/internal/config"
	"safework/internal/safework"
)

// NewBlobStoreFromConfig creates a BlobStore implementation based on the
// storage config type. Stores holding connections implement io.Closer.
func NewBlobStoreFromConfig(ctx context.Context, cfg config.StorageConfig, installationID string, clock safework.Clock) (safework.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryBlobStore(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem storage requires fs_root to be set")
		}
		return NewFileSystemBlobStore(cfg.FSRoot)
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite storage requires sqlite_path to be set")
		}
		return NewSQLiteBlobStore(cfg.SQLitePath, clock)
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres storage requires postgres_url to be set")
		}
		return NewPostgresBlobStore(ctx, cfg.PostgresURL, clock)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires s3_bucket to be set")
		}
		return NewS3BlobStore(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			InstallationID:  installationID,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
