package builder

import (
	"context"
	"encoding/json"
	"fmt"

	"arfs-go/internal/arfs"
	"arfs-go/internal/crypto"
	"arfs-go/internal/keyring"
)

// decoded is a metadata payload turned into JSON, with any keys that were
// used to open it.
type decoded struct {
	json     []byte
	driveKey arfs.EntityKey
	fileKey  arfs.EntityKey
}

// payloadDecoder turns a fetched metadata payload into JSON.
type payloadDecoder interface {
	decode(ctx context.Context, p *parsed, data []byte) (*decoded, error)
}

type plainDecoder struct{}

func (plainDecoder) decode(_ context.Context, _ *parsed, data []byte) (*decoded, error) {
	return &decoded{json: data}, nil
}

// keyDecoder opens private payloads with a known drive key. File payloads
// use fileKey when given and otherwise derive it.
type keyDecoder struct {
	driveKey arfs.EntityKey
	fileKey  arfs.EntityKey
}

func (d keyDecoder) decode(_ context.Context, p *parsed, data []byte) (*decoded, error) {
	if len(d.driveKey) == 0 && len(d.fileKey) == 0 {
		return nil, fmt.Errorf("%w for %s %s", arfs.ErrNoKey, p.spec.Kind, p.id)
	}

	key := d.driveKey
	out := &decoded{driveKey: d.driveKey}
	if p.spec.Kind == arfs.EntityTypeFile {
		fileKey := d.fileKey
		if len(fileKey) == 0 {
			derived, err := crypto.DeriveFileKey(p.id, d.driveKey)
			if err != nil {
				return nil, err
			}
			fileKey = derived
		}
		key = fileKey
		out.fileKey = fileKey
	}

	plaintext, err := crypto.Decrypt(p.cipherIV, key, data)
	if err != nil {
		return nil, fmt.Errorf("decrypting %s %s: %w", p.spec.Kind, p.id, err)
	}
	out.json = plaintext
	return out, nil
}

// KeyResolver finds the key of a private drive without failing.
type KeyResolver interface {
	Resolve(ctx context.Context, driveID arfs.EntityID, cipherIV string, data []byte) keyring.Resolution
}

var encryptedDriveJSON = mustJSON(map[string]string{
	"name":         arfs.Encrypted,
	"rootFolderId": arfs.Encrypted,
})

// safeDriveDecoder reads public drives as they are and private drives
// through a KeyResolver, falling back to a placeholder payload.
type safeDriveDecoder struct {
	keys KeyResolver
}

func (d safeDriveDecoder) decode(ctx context.Context, p *parsed, data []byte) (*decoded, error) {
	if p.privacy != arfs.DrivePrivacyPrivate {
		return &decoded{json: data}, nil
	}
	if p.cipher == "" || p.cipherIV == "" {
		return nil, p.invalid("Cipher and Cipher-IV are required")
	}
	if d.keys == nil {
		return &decoded{json: encryptedDriveJSON}, nil
	}

	res := d.keys.Resolve(ctx, p.id, p.cipherIV, data)
	if res.Placeholder {
		return &decoded{json: encryptedDriveJSON}, nil
	}
	return &decoded{json: res.Plaintext}, nil
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
