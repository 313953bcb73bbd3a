package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("ARFS_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("ARFS_HOME", "/custom/arfs")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/arfs" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/arfs")
		}
		if defaults["log_dir"] != "/custom/arfs/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/arfs/log")
		}
		if defaults["cache_dir"] != "/custom/arfs/cache" {
			t.Errorf("cache_dir = %q, want %q", defaults["cache_dir"], "/custom/arfs/cache")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("ARFS_CONFIG_PATH", "")
		t.Setenv("ARFS_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "arfs.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "arfs")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantLog := filepath.Join(wantBase, "log")
		if defaults["log_dir"] != wantLog {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], wantLog)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("ARFS_HOME", "/custom/arfs")

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() error = %v", err)
	}
	if cfg.BaseDir != "/custom/arfs" || cfg.Cache.Dir != "/custom/arfs/cache" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.Encryption.PrivateKeyPath != "/custom/arfs/keys/arfs.key" {
		t.Errorf("PrivateKeyPath = %q", cfg.Encryption.PrivateKeyPath)
	}
}
