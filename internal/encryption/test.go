package encryption

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"safework/internal/safework"
)

// Frame written by TestEncryptor: magic, format version, payload length
// (big-endian uint32), payload.
const (
	frameMagic   = "SWENC"
	frameVersion = byte(1)
	frameHeader  = len(frameMagic) + 1 + 4
)

// TestEncryptor backs the "test" encryption type. It frames blobs instead of
// encrypting them, so the encrypted storage path (wrapping, unlock, refusal
// of plain snapshots) runs without key files. Nothing it writes is secret.
type TestEncryptor struct {
	mu         sync.Mutex
	passphrase string // empty until Setup; Unlock then accepts any non-empty passphrase
}

var _ safework.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

// Setup pins the passphrase later Unlock calls must present.
func (e *TestEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("%w: passphrase must not be empty", safework.ErrInvalidInput)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading blob: %w", err)
	}

	header := make([]byte, 0, frameHeader)
	header = append(header, frameMagic...)
	header = append(header, frameVersion)
	header = binary.BigEndian.AppendUint32(header, uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing frame payload: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (safework.DecryptionContext, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase must not be empty", safework.ErrInvalidInput)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, errors.New("wrong passphrase")
	}
	return &TestDecryptionContext{}, nil
}

// IsConfigured is always true: the "test" type needs no key files.
func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext unwraps frames written by TestEncryptor.
type TestDecryptionContext struct{}

var _ safework.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading blob: %w", err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return errors.New("blob holds a plain snapshot, not an encrypted one")
	}
	if len(data) < frameHeader || string(data[:len(frameMagic)]) != frameMagic {
		return errors.New("blob was not written by the test encryptor")
	}
	if v := data[len(frameMagic)]; v != frameVersion {
		return fmt.Errorf("unsupported test frame version %d", v)
	}

	size := binary.BigEndian.Uint32(data[len(frameMagic)+1 : frameHeader])
	payload := data[frameHeader:]
	if uint64(len(payload)) != uint64(size) {
		return fmt.Errorf("truncated blob: frame declares %d bytes, found %d", size, len(payload))
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return nil
}
