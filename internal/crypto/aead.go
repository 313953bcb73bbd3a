package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"arfs-go/internal/arfs"
)

// ErrDecrypt is returned when ciphertext cannot be opened with the given key
// and IV. It is distinct from arfs.ErrNoKey.
var ErrDecrypt = errors.New("decryption failed")

// Encrypted is the result of sealing a payload.
type Encrypted struct {
	Cipher string
	IV     string // standard base64
	Data   []byte // ciphertext followed by the 16 byte auth tag
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random IV.
func Encrypt(key arfs.EntityKey, plaintext []byte) (*Encrypted, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, arfs.IVLength)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generating iv: %w", err)
	}

	return &Encrypted{
		Cipher: arfs.CipherAES256GCM,
		IV:     base64.StdEncoding.EncodeToString(iv),
		Data:   aead.Seal(nil, iv, plaintext, nil),
	}, nil
}

// Decrypt opens data sealed by Encrypt. The trailing 16 bytes of data are the
// auth tag. Every failure wraps ErrDecrypt.
func Decrypt(ivB64 string, key arfs.EntityKey, data []byte) ([]byte, error) {
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding iv: %v", ErrDecrypt, err)
	}
	if len(iv) != arfs.IVLength {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecrypt, arfs.IVLength, len(iv))
	}
	if len(data) < arfs.AuthTagLength {
		return nil, fmt.Errorf("%w: ciphertext shorter than auth tag", ErrDecrypt)
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	plaintext, err := aead.Open(nil, iv, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func newGCM(key arfs.EntityKey) (cipher.AEAD, error) {
	if len(key) != arfs.KeyLength {
		return nil, fmt.Errorf("key must be %d bytes, got %d", arfs.KeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, arfs.AuthTagLength)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return aead, nil
}
