package store

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"arfs-go/internal/arfs"
)

// Compression algorithms accepted by NewCompressedStore.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

// Every stored value starts with one of these markers. Values that do not
// shrink are stored raw whatever the configured algorithm.
const (
	markerRaw  byte = 0
	markerZstd byte = 1
	markerLZ4  byte = 2
)

// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// CompressedStore compresses values before handing them to another store.
type CompressedStore struct {
	arfs.Store
	algorithm string
}

// NewCompressedStore wraps inner. Algorithm "none" or "" returns inner as is.
func NewCompressedStore(inner arfs.Store, algorithm string) (arfs.Store, error) {
	switch algorithm {
	case "", CompressionNone:
		return inner, nil
	case CompressionZstd, CompressionLZ4:
		return &CompressedStore{Store: inner, algorithm: algorithm}, nil
	default:
		return nil, fmt.Errorf("unknown compression: %s", algorithm)
	}
}

func (s *CompressedStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	data, ok, err := s.Store.Get(ctx, bucket, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	value, err := decompress(data)
	if err != nil {
		return nil, false, fmt.Errorf("decompressing %s/%s: %w", bucket, key, err)
	}
	return value, true, nil
}

func (s *CompressedStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	return s.Store.Put(ctx, bucket, key, compress(s.algorithm, value))
}

func compress(algorithm string, data []byte) []byte {
	switch algorithm {
	case CompressionZstd:
		out := zstdEncoder.EncodeAll(data, []byte{markerZstd})
		if len(out) < len(data)+1 {
			return out
		}
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		header := binary.AppendUvarint([]byte{markerLZ4}, uint64(len(data)))
		out := make([]byte, len(header)+bound)
		copy(out, header)
		written, err := lz4.CompressBlock(data, out[len(header):], nil)
		// CompressBlock returns 0 for incompressible input.
		if err == nil && written > 0 && len(header)+written < len(data)+1 {
			return out[:len(header)+written]
		}
	}
	return append([]byte{markerRaw}, data...)
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("missing compression marker")
	}
	body := data[1:]
	switch data[0] {
	case markerRaw:
		return body, nil
	case markerZstd:
		out, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	case markerLZ4:
		size, n := binary.Uvarint(body)
		if n <= 0 {
			return nil, fmt.Errorf("lz4 decompress: bad size header")
		}
		out := make([]byte, size)
		read, err := lz4.UncompressBlock(body[n:], out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint64(read) != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression marker: %d", data[0])
	}
}

// Compile-time check that CompressedStore implements arfs.Store interface
var _ arfs.Store = (*CompressedStore)(nil)
