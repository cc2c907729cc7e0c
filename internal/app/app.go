package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"safework/internal/blob"
	"safework/internal/config"
	"safework/internal/encryption"
	"safework/internal/model"
	"safework/internal/report"
	"safework/internal/safework"
	"safework/internal/store"
)

// Options adjusts how NewSafeWorkApp builds the application.
type Options struct {
	// Operation identifies the CLI command being run (e.g. "Add", "Summary").
	Operation  string
	Parameters string

	// Passphrase is asked for only when the stored dataset is encrypted.
	Passphrase func() (string, error)

	// Clock defaults to the real clock.
	Clock safework.Clock
}

// SafeWorkApp is the application layer between the CLI and the Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw strings, and releases the storage backend on Close.
type SafeWorkApp struct {
	cfg     *config.Config
	blobs   safework.BlobStore
	data    *store.Persistent
	service *safework.Service
	op      *Operation
	logger  safework.Logger
	logFile *os.File
	stopOp  func()
}

// NewSafeWorkApp creates a fully wired SafeWorkApp from the given config.
// The caller must call Close when done.
func NewSafeWorkApp(ctx context.Context, cfg *config.Config, opts Options) (*SafeWorkApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = safework.RealClock{}
	}

	op, err := NewOperation(opts.Operation, opts.Parameters)
	if err != nil {
		return nil, err
	}

	logrusLogger, logFile, err := newLogger(cfg.LogDir, op.ID, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &logrusAdapter{l: logrusLogger}

	a := &SafeWorkApp{cfg: cfg, op: op, logger: logger, logFile: logFile}

	blobs, err := blob.NewBlobStoreFromConfig(ctx, cfg.Storage, cfg.InstallationID, clock)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("creating blob store: %w", err)
	}
	a.blobs = blobs

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if enc != nil {
		wrapped, err := unlock(enc, opts.Passphrase, blobs)
		if err != nil {
			a.release()
			return nil, err
		}
		a.blobs = wrapped
	}

	data, err := store.OpenPersistent(ctx, a.blobs, a.key(), clock, logger)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	a.data = data
	a.stopOp = data.Subscribe(op.Record)
	a.service = safework.NewService(data.Stores(), clock, logger)

	logger.Debug("operation started", "operation", op.Name, "parameters", op.Parameters, "storage", cfg.Storage.Type)
	return a, nil
}

func unlock(enc safework.Encryptor, passphrase func() (string, error), inner safework.BlobStore) (safework.BlobStore, error) {
	if !enc.IsConfigured() {
		return nil, fmt.Errorf("encryption keys not found: run `safework keys init`")
	}
	if passphrase == nil {
		return nil, fmt.Errorf("dataset is encrypted and no passphrase source is available")
	}
	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	dec, err := enc.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	return blob.NewEncryptedBlobStore(inner, enc, dec), nil
}

// InitKeys generates the encryption key pair configured in cfg.
func InitKeys(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc == nil {
		return fmt.Errorf("encryption is disabled: set encryption.type in the config first")
	}
	return enc.Setup(passphrase)
}

func (a *SafeWorkApp) key() string {
	return cmp.Or(a.cfg.Storage.Key, store.DefaultKey)
}

// Service exposes the underlying service.
func (a *SafeWorkApp) Service() *safework.Service {
	return a.service
}

// Operation returns the operation this app was created for.
func (a *SafeWorkApp) Operation() *Operation {
	return a.op
}

// Summary returns today's dashboard counts.
func (a *SafeWorkApp) Summary() safework.Summary {
	return a.service.Summary()
}

// Expiring returns the renewal worklist for the next days days. A negative
// value selects the configured default horizon.
func (a *SafeWorkApp) Expiring(days int) ([]safework.Renewal, error) {
	if days < 0 {
		days = a.cfg.ExpiringDays
	}
	return a.service.ExpiringSoon(days)
}

// Export writes the XLSX report to path, replacing any existing file.
func (a *SafeWorkApp) Export(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".safework-export-*")
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := report.Write(tmp, a.service); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("moving export into place: %w", err)
	}

	a.logger.Info("report exported", "path", path)
	return nil
}

// StorageInfo describes where and how the dataset is stored.
type StorageInfo struct {
	Type      string
	Key       string
	Encrypted bool
	Counts    map[string]int
	Blobs     []blob.BlobInfo // nil when the backend cannot list its keys
}

// StorageInfo reports the storage backend, record counts and, when the
// backend supports it, the stored blobs.
func (a *SafeWorkApp) StorageInfo(ctx context.Context) (StorageInfo, error) {
	info := StorageInfo{
		Type:   a.cfg.Storage.Type,
		Key:    a.key(),
		Counts: a.data.Counts(),
	}

	backend := a.blobs
	if enc, ok := backend.(*blob.EncryptedBlobStore); ok {
		info.Encrypted = true
		backend = enc.Unwrap()
	}

	if err := backend.ValidateSetup(ctx); err != nil {
		return info, fmt.Errorf("validating storage: %w", err)
	}
	if lister, ok := backend.(blob.Lister); ok {
		blobs, err := lister.Keys(ctx)
		if err != nil {
			return info, fmt.Errorf("listing blobs: %w", err)
		}
		info.Blobs = blobs
	}
	return info, nil
}

// Fail marks the operation as failed so Close logs it as such.
func (a *SafeWorkApp) Fail(err error) {
	a.op.Fail()
	a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
}

// Close stops persisting, closes the storage backend and the log file.
// It reports the last persistence failure, if the final write failed.
func (a *SafeWorkApp) Close() error {
	var firstErr error

	if a.data != nil {
		a.stopOp()
		if err := a.data.LastError(); err != nil {
			firstErr = err
		}
		a.data.Close()
		a.logger.Info("operation finished",
			"operation", a.op.Name, "status", a.op.Status(), "mutations", a.op.Mutations())
	}

	if err := a.release(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// release closes what NewSafeWorkApp has opened so far.
func (a *SafeWorkApp) release() error {
	var errs []error

	backend := a.blobs
	if enc, ok := backend.(*blob.EncryptedBlobStore); ok {
		backend = enc.Unwrap()
	}
	if c, ok := backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing storage: %w", err))
		}
	}
	a.blobs = nil

	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return errors.Join(errs...)
}

// collectionNames maps accepted spellings to collection names.
var collectionNames = map[string]string{
	"employee": model.CollectionEmployees, model.CollectionEmployees: model.CollectionEmployees,
	"ppe": model.CollectionPPEs, model.CollectionPPEs: model.CollectionPPEs,
	"delivery": model.CollectionPPEDeliveries, "deliveries": model.CollectionPPEDeliveries,
	model.CollectionPPEDeliveries: model.CollectionPPEDeliveries,
	"accident": model.CollectionAccidents, model.CollectionAccidents: model.CollectionAccidents,
	"training": model.CollectionTrainings, model.CollectionTrainings: model.CollectionTrainings,
	"communication": model.CollectionCommunications, model.CollectionCommunications: model.CollectionCommunications,
	"document": model.CollectionDocuments, model.CollectionDocuments: model.CollectionDocuments,
	"inspection": model.CollectionInspections, model.CollectionInspections: model.CollectionInspections,
}

// ResolveCollection returns the collection named by name, which may be the
// collection name or its singular form.
func ResolveCollection(name string) (string, error) {
	if c, ok := collectionNames[name]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown collection %q", safework.ErrInvalidInput, name)
}
