package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for arfs.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	Gateway    GatewayConfig    `toml:"gateway"`
	Cache      CacheConfig      `toml:"cache"`
	Encryption EncryptionConfig `toml:"encryption"`
	Keyring    KeyringConfig    `toml:"keyring"`
	Wallet     WalletConfig     `toml:"wallet"`
	App        AppConfig        `toml:"app"`
}

// GatewayConfig configures the gateway client. Zero values fall back to the
// client defaults.
type GatewayConfig struct {
	URL                 string   `toml:"url"`
	MaxRetries          *int     `toml:"max_retries,omitempty"`
	InitialErrorDelayMS int64    `toml:"initial_error_delay_ms,omitempty"`
	RateLimitCooldownMS int64    `toml:"rate_limit_cooldown_ms,omitempty"`
	TimeoutMS           int64    `toml:"timeout_ms,omitempty"`
	FatalErrors         []string `toml:"fatal_errors,omitempty"`
	ValidStatusCodes    []int    `toml:"valid_status_codes,omitempty"`
}

func (g GatewayConfig) InitialErrorDelay() time.Duration {
	return time.Duration(g.InitialErrorDelayMS) * time.Millisecond
}

func (g GatewayConfig) RateLimitCooldown() time.Duration {
	return time.Duration(g.RateLimitCooldownMS) * time.Millisecond
}

func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMS) * time.Millisecond
}

// CacheConfig represents configuration for the cache store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CacheConfig struct {
	Type        string `toml:"type"`        // "memory", "filesystem", "sqlite", "badger" or "s3"
	Compression string `toml:"compression"` // "none" (default), "zstd" or "lz4"

	// Directory for filesystem, sqlite and badger stores
	Dir string `toml:"dir,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// EncryptionConfig holds paths to the age key pair protecting the persisted
// keyring.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// KeyringConfig controls whether verified drive keys are saved between runs.
type KeyringConfig struct {
	Persist bool `toml:"persist"`
}

// WalletConfig points at a JWK wallet file used to derive drive keys from
// passwords.
type WalletConfig struct {
	Path string `toml:"path,omitempty"`
}

// AppConfig sets the bookkeeping tags the client identifies itself with.
type AppConfig struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	ArFSVersion string `toml:"arfs_version"`
}

// NewConfig creates a new Config rooted at baseDir with default values.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Gateway: GatewayConfig{
			URL: "https://arweave.net:443/",
		},
		Cache: CacheConfig{
			Type:        "sqlite",
			Dir:         filepath.Join(baseDir, "cache"),
			Compression: "zstd",
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "arfs.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "arfs.key"),
		},
		App: AppConfig{
			Name:        "ArFS",
			Version:     "0.0.1",
			ArFSVersion: "0.11",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
