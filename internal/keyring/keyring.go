// Package keyring resolves the keys of private drives from user supplied key
// material. Keys that successfully decrypt a drive are remembered per drive
// id for the rest of the session and can be persisted encrypted at rest.
package keyring

import (
	"context"
	"errors"
	"slices"
	"sync"

	"arfs-go/internal/arfs"
	"arfs-go/internal/crypto"
)

var (
	ErrPasswordWithoutWallet = errors.New("password supplied without a wallet")
	ErrPasswordAndDriveKeys  = errors.New("password and drive keys can't be used together")
)

// Source records where the key behind a Resolution came from.
type Source string

const (
	SourceCached     Source = "cached"
	SourceUnverified Source = "unverified"
	SourceDerived    Source = "derived"
	SourceNone       Source = "none"
)

// Options configures a Keyring. Password requires Wallet and excludes
// DriveKeys.
type Options struct {
	DriveKeys []arfs.EntityKey
	Password  string
	Wallet    crypto.Signer
	Logger    arfs.Logger
}

// Resolution is the outcome of decrypting one payload.
type Resolution struct {
	Plaintext []byte
	Key       arfs.EntityKey
	Source    Source

	// Placeholder is set when no key could decrypt the payload.
	Placeholder bool

	// Promoted is set when an unverified key was confirmed by this call.
	Promoted bool
}

// Keyring is safe for concurrent use.
type Keyring struct {
	mu         sync.Mutex
	verified   map[arfs.EntityID]arfs.EntityKey
	unverified []arfs.EntityKey
	password   string
	wallet     crypto.Signer
	logger     arfs.Logger
}

// New validates opts and returns an empty keyring.
func New(opts Options) (*Keyring, error) {
	if opts.Password != "" && opts.Wallet == nil {
		return nil, ErrPasswordWithoutWallet
	}
	if opts.Password != "" && len(opts.DriveKeys) > 0 {
		return nil, ErrPasswordAndDriveKeys
	}
	logger := opts.Logger
	if logger == nil {
		logger = arfs.NewNopLogger()
	}
	return &Keyring{
		verified:   make(map[arfs.EntityID]arfs.EntityKey),
		unverified: slices.Clone(opts.DriveKeys),
		password:   opts.Password,
		wallet:     opts.Wallet,
		logger:     logger,
	}, nil
}

// Resolve decrypts data for driveID with the first key that works: the
// verified key for the drive, then each unverified key, then a key derived
// from the password. It never fails; when nothing works the Resolution is a
// placeholder.
func (k *Keyring) Resolve(ctx context.Context, driveID arfs.EntityID, cipherIV string, data []byte) Resolution {
	k.mu.Lock()
	defer k.mu.Unlock()

	if key, ok := k.verified[driveID]; ok {
		if pt, err := crypto.Decrypt(cipherIV, key, data); err == nil {
			return Resolution{Plaintext: pt, Key: key, Source: SourceCached}
		}
		k.logger.Warn("cached drive key no longer decrypts drive", "driveId", driveID)
	}

	for i, key := range k.unverified {
		if ctx.Err() != nil {
			return placeholder()
		}
		pt, err := crypto.Decrypt(cipherIV, key, data)
		if err != nil {
			continue
		}
		k.verified[driveID] = key
		k.unverified = slices.Delete(k.unverified, i, i+1)
		k.logger.Debug("promoted drive key", "driveId", driveID)
		return Resolution{Plaintext: pt, Key: key, Source: SourceUnverified, Promoted: true}
	}

	if k.password != "" && k.wallet != nil && ctx.Err() == nil {
		key, err := crypto.DeriveDriveKey(k.password, driveID, k.wallet)
		if err != nil {
			k.logger.Debug("could not derive drive key", "driveId", driveID, "error", err)
			return placeholder()
		}
		if pt, err := crypto.Decrypt(cipherIV, key, data); err == nil {
			k.verified[driveID] = key
			k.logger.Debug("derived drive key", "driveId", driveID)
			return Resolution{Plaintext: pt, Key: key, Source: SourceDerived}
		}
	}

	return placeholder()
}

func placeholder() Resolution {
	return Resolution{Source: SourceNone, Placeholder: true}
}

// KeyFor returns the verified key of driveID.
func (k *Keyring) KeyFor(driveID arfs.EntityID) (arfs.EntityKey, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	key, ok := k.verified[driveID]
	return key, ok
}

// Verified returns a copy of the verified drive keys.
func (k *Keyring) Verified() map[arfs.EntityID]arfs.EntityKey {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(map[arfs.EntityID]arfs.EntityKey, len(k.verified))
	for id, key := range k.verified {
		out[id] = slices.Clone(key)
	}
	return out
}

// Unverified returns how many supplied keys have not matched a drive yet.
func (k *Keyring) Unverified() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.unverified)
}
