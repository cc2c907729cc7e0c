package blob

import (
	"bytes"
	"context"
	"fmt"

	"safework/internal/safework"
)

// EncryptedBlobStore encrypts every value before handing it to the wrapped
// store and decrypts it on the way back. Writing needs only the public key;
// reading needs an unlocked DecryptionContext.
type EncryptedBlobStore struct {
	inner     safework.BlobStore
	encryptor safework.Encryptor
	decryptor safework.DecryptionContext
}

var _ safework.BlobStore = (*EncryptedBlobStore)(nil)

// NewEncryptedBlobStore wraps inner. decryptor may be nil, in which case Get
// fails for existing keys.
func NewEncryptedBlobStore(inner safework.BlobStore, encryptor safework.Encryptor, decryptor safework.DecryptionContext) *EncryptedBlobStore {
	return &EncryptedBlobStore{inner: inner, encryptor: encryptor, decryptor: decryptor}
}

func (s *EncryptedBlobStore) Put(ctx context.Context, key string, data []byte) error {
	var buf bytes.Buffer
	if err := s.encryptor.Encrypt(bytes.NewReader(data), &buf); err != nil {
		return fmt.Errorf("encrypting blob %s: %w", key, err)
	}
	return s.inner.Put(ctx, key, buf.Bytes())
}

func (s *EncryptedBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	ciphertext, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.decryptor == nil {
		return nil, fmt.Errorf("blob %s is encrypted and no key has been unlocked", key)
	}

	var buf bytes.Buffer
	if err := s.decryptor.Decrypt(bytes.NewReader(ciphertext), &buf); err != nil {
		return nil, fmt.Errorf("decrypting blob %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (s *EncryptedBlobStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *EncryptedBlobStore) ValidateSetup(ctx context.Context) error {
	if !s.encryptor.IsConfigured() {
		return fmt.Errorf("encryption keys not found: run `safework keys init`")
	}
	return s.inner.ValidateSetup(ctx)
}

// Unwrap returns the wrapped store.
func (s *EncryptedBlobStore) Unwrap() safework.BlobStore {
	return s.inner
}
