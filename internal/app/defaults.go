package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Env holds the environment overrides, all prefixed with SAFEWORK_.
type Env struct {
	ConfigPath string `split_words:"true"` // SAFEWORK_CONFIG_PATH
	Home       string // SAFEWORK_HOME
	Passphrase string // SAFEWORK_PASSPHRASE, unlocks encrypted storage without a prompt
}

// LoadEnv reads the SAFEWORK_ environment variables.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("safework", &env); err != nil {
		return Env{}, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - SAFEWORK_CONFIG_PATH: config file location (default: ~/.config/safework.toml)
//   - SAFEWORK_HOME: base directory for safework data (default: ~/.local/share/safework)
func GetDefaults() (map[string]string, error) {
	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}

	configPath := env.ConfigPath
	baseDir := env.Home
	if configPath == "" || baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if configPath == "" {
			configPath = filepath.Join(homeDir, ".config", "safework.toml")
		}
		if baseDir == "" {
			baseDir = filepath.Join(homeDir, ".local", "share", "safework")
		}
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}
