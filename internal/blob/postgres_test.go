package blob

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"safework/internal/safework"
)

// newTestPostgresBlobStore starts Postgres in a container. It is skipped
// unless TEST_INTEGRATION is set.
func newTestPostgresBlobStore(t *testing.T) *PostgresBlobStore {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("safework_test"),
		postgres.WithUsername("safework"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	store, err := NewPostgresBlobStore(ctx, url, fixedClock{time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("NewPostgresBlobStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresBlobStore(t *testing.T) {
	store := newTestPostgresBlobStore(t)
	ctx := context.Background()

	t.Run("validate setup", func(t *testing.T) {
		if err := store.ValidateSetup(ctx); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if _, err := store.Get(ctx, "missing"); !errors.Is(err, safework.ErrBlobNotFound) {
			t.Errorf("Get() error = %v, want ErrBlobNotFound", err)
		}
	})

	t.Run("put upserts", func(t *testing.T) {
		for _, v := range []string{"v1", "v2"} {
			if err := store.Put(ctx, "safework-data", []byte(v)); err != nil {
				t.Fatalf("Put(%q) error = %v", v, err)
			}
		}
		got, err := store.Get(ctx, "safework-data")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "v2" {
			t.Errorf("Get() = %q, want %q", got, "v2")
		}

		keys, err := store.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		if len(keys) != 1 || keys[0].Key != "safework-data" {
			t.Errorf("Keys() = %+v, want one safework-data entry", keys)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.Delete(ctx, "safework-data"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Get(ctx, "safework-data"); !errors.Is(err, safework.ErrBlobNotFound) {
			t.Errorf("Get() after Delete error = %v, want ErrBlobNotFound", err)
		}
	})
}
