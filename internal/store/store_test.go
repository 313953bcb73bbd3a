package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"arfs-go/internal/arfs"
	"arfs-go/internal/config"
)

func newStores(t *testing.T) map[string]arfs.Store {
	t.Helper()

	fs, err := NewFileSystemStore(filepath.Join(t.TempDir(), "fs"))
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	sqlite, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	badgerStore, err := NewBadgerStore("")
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	zstdStore, err := NewCompressedStore(NewMemoryStore(), CompressionZstd)
	if err != nil {
		t.Fatalf("NewCompressedStore(zstd) error = %v", err)
	}
	lz4Store, err := NewCompressedStore(NewMemoryStore(), CompressionLZ4)
	if err != nil {
		t.Fatalf("NewCompressedStore(lz4) error = %v", err)
	}

	stores := map[string]arfs.Store{
		"memory":     NewMemoryStore(),
		"filesystem": fs,
		"sqlite":     sqlite,
		"badger":     badgerStore,
		"s3":         newS3Store(newFakeS3(), "cache-bucket", "arfs"),
		"zstd":       zstdStore,
		"lz4":        lz4Store,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStores_PutGet(t *testing.T) {
	ctx := context.Background()
	large := bytes.Repeat([]byte(`{"name":"folder","rootFolderId":"x"}`), 200)

	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			tests := []struct {
				key   string
				value []byte
			}{
				{key: "plain", value: []byte("hello world")},
				{key: `{"driveId":"abc","owner":"xyz"}`, value: []byte("json key")},
				{key: "empty", value: []byte{}},
				{key: "large", value: large},
			}
			for _, tt := range tests {
				if err := s.Put(ctx, "drives", tt.key, tt.value); err != nil {
					t.Fatalf("Put(%q) error = %v", tt.key, err)
				}
				got, ok, err := s.Get(ctx, "drives", tt.key)
				if err != nil || !ok {
					t.Fatalf("Get(%q) = _, %v, %v, want hit", tt.key, ok, err)
				}
				if !bytes.Equal(got, tt.value) {
					t.Errorf("Get(%q) = %d bytes, want %d", tt.key, len(got), len(tt.value))
				}
			}

			if _, ok, err := s.Get(ctx, "drives", "missing"); err != nil || ok {
				t.Errorf("Get(missing) = _, %v, %v, want miss", ok, err)
			}
			if _, ok, err := s.Get(ctx, "folders", "plain"); err != nil || ok {
				t.Errorf("Get() from other bucket = _, %v, %v, want miss", ok, err)
			}
		})
	}
}

func TestStores_OverwriteRemoveClearSize(t *testing.T) {
	ctx := context.Background()

	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				if err := s.Put(ctx, "files", fmt.Sprintf("k%d", i), []byte("v")); err != nil {
					t.Fatalf("Put() error = %v", err)
				}
			}
			if err := s.Put(ctx, "owners", "k0", []byte("owner")); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if err := s.Put(ctx, "files", "k0", []byte("replaced")); err != nil {
				t.Fatalf("Put() overwrite error = %v", err)
			}

			got, _, _ := s.Get(ctx, "files", "k0")
			if string(got) != "replaced" {
				t.Errorf("Get(k0) = %q, want replaced", got)
			}
			if n, err := s.Size(ctx, "files"); err != nil || n != 3 {
				t.Errorf("Size(files) = %d, %v, want 3", n, err)
			}

			if err := s.Remove(ctx, "files", "k1"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if err := s.Remove(ctx, "files", "never-stored"); err != nil {
				t.Errorf("Remove(absent) error = %v", err)
			}
			if n, _ := s.Size(ctx, "files"); n != 2 {
				t.Errorf("Size(files) after Remove = %d, want 2", n)
			}

			if err := s.Clear(ctx, "files"); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if n, _ := s.Size(ctx, "files"); n != 0 {
				t.Errorf("Size(files) after Clear = %d, want 0", n)
			}
			if n, _ := s.Size(ctx, "owners"); n != 1 {
				t.Errorf("Size(owners) after clearing files = %d, want 1", n)
			}
			if err := s.ValidateSetup(ctx); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}

func TestCompressedStore_ShrinksRepetitiveValues(t *testing.T) {
	ctx := context.Background()
	value := bytes.Repeat([]byte("ArFS "), 1000)

	for _, algorithm := range []string{CompressionZstd, CompressionLZ4} {
		t.Run(algorithm, func(t *testing.T) {
			inner := NewMemoryStore()
			s, err := NewCompressedStore(inner, algorithm)
			if err != nil {
				t.Fatalf("NewCompressedStore() error = %v", err)
			}
			if err := s.Put(ctx, "metadata", "tx", value); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			raw, _, _ := inner.Get(ctx, "metadata", "tx")
			if len(raw) >= len(value) {
				t.Errorf("stored %d bytes, want fewer than %d", len(raw), len(value))
			}
		})
	}
}

func TestCompressedStore_RejectsUnknownMarker(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s, _ := NewCompressedStore(inner, CompressionZstd)
	inner.Put(ctx, "metadata", "tx", []byte{9, 1, 2})

	if _, _, err := s.Get(ctx, "metadata", "tx"); err == nil {
		t.Error("Get() with unknown marker error = nil, want error")
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.CacheConfig{Type: "memory"}},
		{name: "memory with zstd", cfg: config.CacheConfig{Type: "memory", Compression: "zstd"}},
		{name: "filesystem", cfg: config.CacheConfig{Type: "filesystem", Dir: filepath.Join(dir, "fs")}},
		{name: "sqlite", cfg: config.CacheConfig{Type: "sqlite", Dir: filepath.Join(dir, "sqlite")}},
		{name: "badger", cfg: config.CacheConfig{Type: "badger", Dir: filepath.Join(dir, "badger")}},
		{name: "filesystem without dir", cfg: config.CacheConfig{Type: "filesystem"}, wantErr: true},
		{name: "s3 without bucket", cfg: config.CacheConfig{Type: "s3"}, wantErr: true},
		{name: "unknown compression", cfg: config.CacheConfig{Type: "memory", Compression: "brotli"}, wantErr: true},
		{name: "unknown type", cfg: config.CacheConfig{Type: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStoreFromConfig(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer s.Close()
			if err := s.ValidateSetup(ctx); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}

// fakeS3 is an in-memory s3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, obj := range in.Delete.Objects {
		delete(f.objects, aws.ToString(obj.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{KeyCount: aws.Int32(int32(len(keys)))}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}
