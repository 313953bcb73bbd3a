package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"arfs-go/internal/arfs"
)

// Signer produces RSA-PSS (SHA-256, zero salt) signatures with a wallet's
// private key.
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

var driveKeyLabel = []byte("drive")

// DeriveDriveKey derives the key of a private drive from the user's password
// and a signature over the drive id.
func DeriveDriveKey(password string, driveID arfs.EntityID, signer Signer) (arfs.EntityKey, error) {
	idBytes, err := driveID.Bytes()
	if err != nil {
		return nil, fmt.Errorf("deriving drive key: %w", err)
	}

	input := make([]byte, 0, len(driveKeyLabel)+len(idBytes))
	input = append(input, driveKeyLabel...)
	input = append(input, idBytes...)

	sig, err := signer.Sign(input)
	if err != nil {
		return nil, fmt.Errorf("signing drive id: %w", err)
	}

	return expand(sig, []byte(password))
}

// DeriveFileKey derives the key of a private file from its drive key.
func DeriveFileKey(fileID arfs.EntityID, driveKey arfs.EntityKey) (arfs.EntityKey, error) {
	idBytes, err := fileID.Bytes()
	if err != nil {
		return nil, fmt.Errorf("deriving file key: %w", err)
	}
	return expand(driveKey, idBytes)
}

func expand(secret, info []byte) (arfs.EntityKey, error) {
	key := make([]byte, arfs.KeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, info), key); err != nil {
		return nil, fmt.Errorf("expanding key: %w", err)
	}
	return arfs.EntityKey(key), nil
}
