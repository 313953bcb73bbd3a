package encryption

import (
	"bytes"
	"fmt"

	"arfs-go/internal/arfs"
	"arfs-go/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (arfs.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}

// Seal encrypts data in memory.
func Seal(enc arfs.Encryptor, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := enc.Encrypt(bytes.NewReader(data), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Open decrypts data sealed by Seal.
func Open(dec arfs.DecryptionContext, sealed []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := dec.Decrypt(bytes.NewReader(sealed), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
