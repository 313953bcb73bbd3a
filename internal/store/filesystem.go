package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"arfs-go/internal/arfs"
)

// FileSystemStore keeps one file per entry:
//
//	<root>/
//	  <bucket>/
//	    <blake3(key)>
//
// Keys are hashed because cache keys contain characters that are not valid
// in file names.
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at root, creating it if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

func (s *FileSystemStore) bucketDir(bucket string) string {
	return filepath.Join(s.root, bucket)
}

func (s *FileSystemStore) entryPath(bucket, key string) string {
	sum := blake3.Sum256([]byte(key))
	return filepath.Join(s.bucketDir(bucket), hex.EncodeToString(sum[:]))
}

func (s *FileSystemStore) Get(_ context.Context, bucket, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.entryPath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read entry: %w", err)
	}
	return data, true, nil
}

func (s *FileSystemStore) Put(_ context.Context, bucket, key string, value []byte) error {
	if err := os.MkdirAll(s.bucketDir(bucket), 0755); err != nil {
		return fmt.Errorf("failed to create bucket directory: %w", err)
	}
	return writeFile(s.entryPath(bucket, key), value)
}

func (s *FileSystemStore) Remove(_ context.Context, bucket, key string) error {
	if err := os.Remove(s.entryPath(bucket, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove entry: %w", err)
	}
	return nil
}

func (s *FileSystemStore) Clear(_ context.Context, bucket string) error {
	if err := os.RemoveAll(s.bucketDir(bucket)); err != nil {
		return fmt.Errorf("failed to clear bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *FileSystemStore) Size(_ context.Context, bucket string) (int, error) {
	entries, err := os.ReadDir(s.bucketDir(bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list bucket %s: %w", bucket, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".tmp-") {
			n++
		}
	}
	return n, nil
}

// ValidateSetup verifies that the store root is an accessible directory.
func (s *FileSystemStore) ValidateSetup(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("store root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store root is not a directory: %s", s.root)
	}
	return nil
}

func (s *FileSystemStore) Close() error { return nil }

// writeFile writes data to destPath using atomic write (temp file + rename).
func writeFile(destPath string, data []byte) error {
	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStore implements arfs.Store interface
var _ arfs.Store = (*FileSystemStore)(nil)
