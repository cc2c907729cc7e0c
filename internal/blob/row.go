package blob

import (
	"context"
	"time"
)

// blobRow is a row of the blobs table on both relational backends.
type blobRow struct {
	Key       string    `db:"key"`
	Data      []byte    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BlobInfo describes a stored blob without its contents.
type BlobInfo struct {
	Key       string    `db:"key"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]BlobInfo, error)
}
