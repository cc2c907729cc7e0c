package blob

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"safework/internal/encryption"
	"safework/internal/safework"
)

func TestEncryptedBlobStore_RoundTrip(t *testing.T) {
	inner := NewMemoryBlobStore()
	enc := encryption.NewTestEncryptor()
	dec, err := enc.Unlock("pass")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	store := NewEncryptedBlobStore(inner, enc, dec)
	ctx := context.Background()

	plaintext := []byte(`{"documents":[]}`)
	if err := store.Put(ctx, "k", plaintext); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	raw, err := inner.Get(ctx, "k")
	if err != nil {
		t.Fatalf("inner Get() error = %v", err)
	}
	if bytes.Equal(raw, plaintext) {
		t.Error("inner store holds plaintext")
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Get() = %q, want %q", got, plaintext)
	}
}

func TestEncryptedBlobStore_Locked(t *testing.T) {
	inner := NewMemoryBlobStore()
	store := NewEncryptedBlobStore(inner, encryption.NewTestEncryptor(), nil)
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("secret")); err != nil {
		t.Fatalf("Put() without unlocked key error = %v", err)
	}
	if _, err := store.Get(ctx, "k"); err == nil {
		t.Error("Get() without unlocked key should fail")
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, safework.ErrBlobNotFound) {
		t.Errorf("Get() of missing key error = %v, want ErrBlobNotFound", err)
	}
}

func TestEncryptedBlobStore_RejectsPlaintext(t *testing.T) {
	inner := NewMemoryBlobStore()
	enc := encryption.NewTestEncryptor()
	dec, _ := enc.Unlock("pass")
	store := NewEncryptedBlobStore(inner, enc, dec)
	ctx := context.Background()

	if err := inner.Put(ctx, "k", []byte(`{"employees":[]}`)); err != nil {
		t.Fatalf("inner Put() error = %v", err)
	}
	if _, err := store.Get(ctx, "k"); err == nil {
		t.Error("Get() of unencrypted blob should fail")
	}
}
