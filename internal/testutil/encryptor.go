package testutil

import (
	"safework/internal/encryption"
	"safework/internal/safework"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() safework.Encryptor {
	return encryption.NewTestEncryptor()
}
