package database

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLite(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		db, err := OpenSQLite(":memory:")
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		defer db.Close()

		var count int
		if err := db.Get(&count, "SELECT COUNT(*) FROM blobs"); err != nil {
			t.Fatalf("blobs table not queryable: %v", err)
		}
		if count != 0 {
			t.Errorf("blobs count = %d, want 0", count)
		}
	})

	t.Run("reopening a file keeps the schema", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "safework.db")

		db, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("first OpenSQLite() error = %v", err)
		}
		if _, err := db.Exec(`INSERT INTO blobs (key, data, updated_at) VALUES ('k', x'01', CURRENT_TIMESTAMP)`); err != nil {
			t.Fatalf("insert error = %v", err)
		}
		db.Close()

		db, err = OpenSQLite(path)
		if err != nil {
			t.Fatalf("second OpenSQLite() error = %v", err)
		}
		defer db.Close()

		var count int
		if err := db.Get(&count, "SELECT COUNT(*) FROM blobs"); err != nil {
			t.Fatalf("count error = %v", err)
		}
		if count != 1 {
			t.Errorf("blobs count = %d, want 1", count)
		}
	})
}
