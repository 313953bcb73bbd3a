package keyring

import (
	"context"
	"encoding/json"
	"fmt"

	"arfs-go/internal/arfs"
	"arfs-go/internal/encryption"
)

// Storage location of the persisted keyring.
const (
	Bucket = "keyring"
	Key    = "drive-keys"
)

// Save writes the verified keys to s, sealed with enc. Keys are stored in
// their base64url form.
func (k *Keyring) Save(ctx context.Context, s arfs.Store, enc arfs.Encryptor) error {
	verified := k.Verified()
	encoded := make(map[string]string, len(verified))
	for id, key := range verified {
		encoded[string(id)] = key.String()
	}

	data, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encoding keyring: %w", err)
	}
	sealed, err := encryption.Seal(enc, data)
	if err != nil {
		return fmt.Errorf("encrypting keyring: %w", err)
	}
	if err := s.Put(ctx, Bucket, Key, sealed); err != nil {
		return fmt.Errorf("saving keyring: %w", err)
	}
	return nil
}

// Load merges a keyring saved by Save into the verified keys. It returns the
// number of keys loaded; a missing keyring loads zero keys.
func (k *Keyring) Load(ctx context.Context, s arfs.Store, dec arfs.DecryptionContext) (int, error) {
	sealed, ok, err := s.Get(ctx, Bucket, Key)
	if err != nil {
		return 0, fmt.Errorf("reading keyring: %w", err)
	}
	if !ok {
		return 0, nil
	}

	data, err := encryption.Open(dec, sealed)
	if err != nil {
		return 0, fmt.Errorf("decrypting keyring: %w", err)
	}

	var encoded map[string]string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return 0, fmt.Errorf("decoding keyring: %w", err)
	}

	loaded := make(map[arfs.EntityID]arfs.EntityKey, len(encoded))
	for rawID, rawKey := range encoded {
		id, err := arfs.ParseEntityID(rawID)
		if err != nil {
			return 0, fmt.Errorf("decoding keyring: %w", err)
		}
		key, err := arfs.ParseEntityKey(rawKey)
		if err != nil {
			return 0, fmt.Errorf("decoding keyring key for %s: %w", id, err)
		}
		loaded[id] = key
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for id, key := range loaded {
		k.verified[id] = key
	}
	return len(loaded), nil
}
