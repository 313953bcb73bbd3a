package encryption

import (
	"bytes"
	"fmt"
	"io"

	"arfs-go/internal/arfs"
)

// testHeader marks data sealed by TestEncryptor.
var testHeader = []byte("ARFSKR\x00\x00")

// TestEncryptor is a deterministic stand-in for tests. It prepends a fixed
// header instead of encrypting, and Unlock checks the passphrase given to
// Setup so wrong-passphrase paths can be exercised.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ arfs.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor returns an encryptor that is already configured with an
// empty passphrase.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (arfs.DecryptionContext, error) {
	if passphrase != e.passphrase {
		return nil, fmt.Errorf("decrypting private key: incorrect passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ arfs.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
