package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"arfs-go/internal/arfs"
	"arfs-go/internal/config"
)

// NewStoreFromConfig creates a Store implementation based on the cache config
// type, wrapped with the configured compression.
func NewStoreFromConfig(ctx context.Context, cfg config.CacheConfig) (arfs.Store, error) {
	inner, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := NewCompressedStore(inner, cfg.Compression)
	if err != nil {
		inner.Close()
		return nil, err
	}
	return s, nil
}

func newBackend(ctx context.Context, cfg config.CacheConfig) (arfs.Store, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem cache requires dir to be set")
		}
		return NewFileSystemStore(cfg.Dir)
	case "sqlite":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("sqlite cache requires dir to be set")
		}
		if err := ensureDir(cfg.Dir); err != nil {
			return nil, err
		}
		return NewSQLiteStore(filepath.Join(cfg.Dir, "cache.db"))
	case "badger":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("badger cache requires dir to be set")
		}
		return NewBadgerStore(filepath.Join(cfg.Dir, "badger"))
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}
