package app

import (
	"fmt"
	"os"
	"path/filepath"

	"arfs-go/internal/config"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - ARFS_CONFIG_PATH: config file location (default: ~/.config/arfs.toml)
//   - ARFS_HOME: base directory for arfs data (default: ~/.local/share/arfs)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"cache_dir":   filepath.Join(baseDir, "cache"),
		"keys_dir":    filepath.Join(baseDir, "keys"),
	}, nil
}

// DefaultConfig returns the config written by `arfs config init`.
func DefaultConfig() (*config.Config, error) {
	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}
	return config.NewConfig(baseDir), nil
}

// getConfigPath returns the config file path from ARFS_CONFIG_PATH, or
// ~/.config/arfs.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("ARFS_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "arfs.toml"), nil
}

// getBaseDir returns ARFS_HOME, or the XDG default ~/.local/share/arfs.
func getBaseDir() (string, error) {
	if path := os.Getenv("ARFS_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "arfs"), nil
}
