package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	retries := 3
	original := &Config{
		BaseDir:  "/home/user/.local/share/arfs",
		LogDir:   "/home/user/.local/share/arfs/log",
		LogLevel: "debug",
		Gateway: GatewayConfig{
			URL:                 "https://gateway.example:443/",
			MaxRetries:          &retries,
			InitialErrorDelayMS: 250,
			FatalErrors:         []string{"invalid_proof"},
			ValidStatusCodes:    []int{200, 202},
		},
		Cache: CacheConfig{Type: "s3", Compression: "lz4", S3Bucket: "arfs-cache", S3Prefix: "dev", S3Region: "eu-west-1"},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/arfs/keys/arfs.pub",
			PrivateKeyPath: "/home/user/.local/share/arfs/keys/arfs.key",
		},
		Keyring: KeyringConfig{Persist: true},
		Wallet:  WalletConfig{Path: "/home/user/wallet.json"},
		App:     AppConfig{Name: "ArFS", Version: "0.0.1", ArFSVersion: "0.11"},
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

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.Gateway.MaxRetries == nil || *got.Gateway.MaxRetries != 3 {
		t.Errorf("Gateway.MaxRetries = %v, want 3", got.Gateway.MaxRetries)
	}
	if got.Gateway.InitialErrorDelay() != 250*time.Millisecond {
		t.Errorf("Gateway.InitialErrorDelay() = %v, want 250ms", got.Gateway.InitialErrorDelay())
	}
	if len(got.Gateway.ValidStatusCodes) != 2 {
		t.Errorf("len(Gateway.ValidStatusCodes) = %d, want 2", len(got.Gateway.ValidStatusCodes))
	}
	if got.Cache.Type != "s3" || got.Cache.S3Bucket != "arfs-cache" || got.Cache.Compression != "lz4" {
		t.Errorf("Cache = %+v", got.Cache)
	}
	if !got.Keyring.Persist {
		t.Error("Keyring.Persist = false, want true")
	}
	if got.Wallet.Path != original.Wallet.Path {
		t.Errorf("Wallet.Path = %q, want %q", got.Wallet.Path, original.Wallet.Path)
	}
	if got.Encryption.PrivateKeyPath != original.Encryption.PrivateKeyPath {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", got.Encryption.PrivateKeyPath, original.Encryption.PrivateKeyPath)
	}
}

func TestManager_Read_MissingRetriesStaysUnset(t *testing.T) {
	m := &Manager{}
	cfg, err := m.Read(strings.NewReader("[gateway]\nurl = \"http://localhost:1984/\"\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Gateway.MaxRetries != nil {
		t.Errorf("Gateway.MaxRetries = %d, want nil", *cfg.Gateway.MaxRetries)
	}
	if cfg.Gateway.RateLimitCooldown() != 0 {
		t.Errorf("Gateway.RateLimitCooldown() = %v, want 0", cfg.Gateway.RateLimitCooldown())
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/arfs")

	if cfg.BaseDir != "/data/arfs" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/arfs")
	}
	if cfg.LogDir != "/data/arfs/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/arfs/log")
	}
	if cfg.Cache.Dir != "/data/arfs/cache" {
		t.Errorf("Cache.Dir = %q, want %q", cfg.Cache.Dir, "/data/arfs/cache")
	}
	if cfg.Encryption.PublicKeyPath != "/data/arfs/keys/arfs.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/arfs/keys/arfs.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/arfs/keys/arfs.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/arfs/keys/arfs.key")
	}
	if cfg.Gateway.URL != "https://arweave.net:443/" {
		t.Errorf("Gateway.URL = %q", cfg.Gateway.URL)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "arfs.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "arfs.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
		if !strings.Contains(err.Error(), "config file already exists") {
			t.Errorf("second Init() error = %v", err)
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "arfs.toml")
		cfg := NewConfig(dir)
		cfg.Cache = CacheConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %q, want %q", got.Cache.Type, "memory")
		}
		if got.App.Name != "ArFS" {
			t.Errorf("App.Name = %q, want %q", got.App.Name, "ArFS")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/arfs.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
