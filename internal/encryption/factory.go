package encryption

import (
	"fmt"

	"safework/internal/config"
	"safework/internal/safework"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil, nil when encryption is disabled.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (safework.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
