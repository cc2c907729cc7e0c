package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		InstallationID: "test-install-abc",
		BaseDir:        "/home/user/.local/share/safework",
		LogDir:         "/home/user/.local/share/safework/log",
		LogLevel:       "debug",
		ExpiringDays:   45,
		Storage: StorageConfig{
			Type:     "s3",
			Key:      "plant-a",
			S3Bucket: "ohs-data",
			S3Prefix: "safework",
			S3Region: "sa-east-1",
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/safework/keys/safework.pub",
			PrivateKeyPath: "/home/user/.local/share/safework/keys/safework.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.InstallationID != original.InstallationID {
		t.Errorf("InstallationID = %q, want %q", got.InstallationID, original.InstallationID)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.ExpiringDays != 45 {
		t.Errorf("ExpiringDays = %d, want %d", got.ExpiringDays, 45)
	}
	if got.Storage != original.Storage {
		t.Errorf("Storage = %+v, want %+v", got.Storage, original.Storage)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
}

func TestManager_Write_OmitsUnusedBackendFields(t *testing.T) {
	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, NewConfig("i1", "/data/safework")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, field := range []string{"s3_bucket", "postgres_url", "sqlite_path"} {
		if strings.Contains(out, field) {
			t.Errorf("encoded config contains %q for a filesystem store:\n%s", field, out)
		}
	}
	if !strings.Contains(out, "fs_root") {
		t.Errorf("encoded config missing fs_root:\n%s", out)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("install-1", "/data/safework")

	if cfg.InstallationID != "install-1" {
		t.Errorf("InstallationID = %q, want %q", cfg.InstallationID, "install-1")
	}
	if cfg.LogDir != "/data/safework/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/safework/log")
	}
	if cfg.Storage.Type != "filesystem" || cfg.Storage.FSRoot != "/data/safework/data" {
		t.Errorf("Storage = %+v, want filesystem at /data/safework/data", cfg.Storage)
	}
	if cfg.Encryption.Type != "none" {
		t.Errorf("Encryption.Type = %q, want %q", cfg.Encryption.Type, "none")
	}
	if cfg.Encryption.PublicKeyPath != "/data/safework/keys/safework.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/safework/keys/safework.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/safework/keys/safework.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/safework/keys/safework.key")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing installation id", mutate: func(c *Config) { c.InstallationID = "" }, wantErr: true},
		{name: "negative expiring days", mutate: func(c *Config) { c.ExpiringDays = -1 }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: true},
		{name: "empty log level", mutate: func(c *Config) { c.LogLevel = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("i1", "/data")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file readable only by owner", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "safework.toml")

		if err := Init(path, NewConfig("i1", dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("config file not created: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("config file mode = %o, want %o", perm, 0600)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "safework.toml")
		cfg := NewConfig("i1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "safework.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Storage = StorageConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.InstallationID != "read-test" {
			t.Errorf("InstallationID = %q, want %q", got.InstallationID, "read-test")
		}
		if got.Storage.Type != "memory" {
			t.Errorf("Storage.Type = %q, want %q", got.Storage.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/safework.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
