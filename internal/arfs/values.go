package arfs

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	addressPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]{43}$`)
	entityIDPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Address is a 43 character base64url ledger identifier. It is used both for
// wallet addresses and for transaction ids.
type Address string

// StubTransactionID stands in for the data transaction of entities that have
// no data payload (folders).
const StubTransactionID Address = "0000000000000000000000000000000000000000000"

// ParseAddress validates s as a ledger address.
func ParseAddress(s string) (Address, error) {
	if !addressPattern.MatchString(s) {
		return "", fmt.Errorf("%w: address %q must be 43 base64url characters", ErrInvalidValue, s)
	}
	return Address(s), nil
}

// MustParseAddress is like ParseAddress but panics on invalid input.
// Intended for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string { return string(a) }

func (a Address) Equals(other Address) bool { return a == other }

// EntityID identifies a drive, folder or file. Revisions of an entity share
// the same id.
type EntityID string

const (
	// Encrypted replaces values that could not be decrypted.
	Encrypted = "ENCRYPTED"

	// EncryptedEntityID is the placeholder id used for undecryptable entities.
	EncryptedEntityID EntityID = Encrypted

	// RootFolderID is the parent id assigned to a drive's root folder.
	RootFolderID EntityID = "root folder"

	// FakeEntityID is a syntactically valid id used when estimating.
	FakeEntityID EntityID = "00000000-0000-0000-0000-000000000000"
)

// ParseEntityID validates s as a UUID or one of the reserved sentinels.
func ParseEntityID(s string) (EntityID, error) {
	switch EntityID(s) {
	case EncryptedEntityID, RootFolderID:
		return EntityID(s), nil
	}
	if !entityIDPattern.MatchString(s) {
		return "", fmt.Errorf("%w: entity id %q is not a UUID", ErrInvalidValue, s)
	}
	return EntityID(s), nil
}

// MustParseEntityID is like ParseEntityID but panics on invalid input.
func MustParseEntityID(s string) EntityID {
	id, err := ParseEntityID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// NewEntityID returns a random version 4 entity id.
func NewEntityID() EntityID {
	return EntityID(uuid.New().String())
}

func (id EntityID) String() string { return string(id) }

// Equals compares ids exactly. Gateway tag filters, hierarchy links and
// cache keys all match the raw string, so ids differing only in case are
// different ids.
func (id EntityID) Equals(other EntityID) bool {
	return id == other
}

// IsSentinel reports whether id is one of the reserved non-UUID values.
func (id EntityID) IsSentinel() bool {
	return id == EncryptedEntityID || id == RootFolderID
}

// Bytes returns the 16 byte binary form of the UUID.
func (id EntityID) Bytes() ([]byte, error) {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return nil, fmt.Errorf("%w: entity id %q has no binary form: %v", ErrInvalidValue, id, err)
	}
	b := u[:]
	return b, nil
}

// UnixTime is a non-negative count of seconds since the epoch.
type UnixTime int64

// NewUnixTime validates that seconds is non-negative.
func NewUnixTime(seconds int64) (UnixTime, error) {
	if seconds < 0 {
		return 0, fmt.Errorf("%w: unix time must be non-negative, got %d", ErrInvalidValue, seconds)
	}
	return UnixTime(seconds), nil
}

// ParseUnixTime parses the decimal integer form used in Unix-Time tags.
func ParseUnixTime(s string) (UnixTime, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unix time %q is not an integer", ErrInvalidValue, s)
	}
	return NewUnixTime(n)
}

func (t UnixTime) String() string { return strconv.FormatInt(int64(t), 10) }

// ByteCount is a non-negative number of bytes.
type ByteCount int64

// NewByteCount validates that n is non-negative.
func NewByteCount(n int64) (ByteCount, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: byte count must be non-negative, got %d", ErrInvalidValue, n)
	}
	return ByteCount(n), nil
}

func (b ByteCount) String() string { return strconv.FormatInt(int64(b), 10) }

func (b ByteCount) Plus(other ByteCount) ByteCount { return b + other }

// Minus returns b - other, failing if the result would be negative.
func (b ByteCount) Minus(other ByteCount) (ByteCount, error) {
	return NewByteCount(int64(b) - int64(other))
}

func (b ByteCount) IsGreaterThan(other ByteCount) bool { return b > other }

func (b ByteCount) IsGreaterThanOrEqualTo(other ByteCount) bool { return b >= other }

// EncryptedDataSize is the size of b once sealed with AES-256-GCM.
func (b ByteCount) EncryptedDataSize() ByteCount {
	return b + AuthTagLength
}

// Format renders b with a binary unit suffix, e.g. "1.500 KB".
func (b ByteCount) Format() string {
	const marker = 1024
	switch {
	case b < marker:
		return fmt.Sprintf("%d Bytes", b)
	case b < marker*marker:
		return fmt.Sprintf("%.3f KB", float64(b)/marker)
	case b < marker*marker*marker:
		return fmt.Sprintf("%.3f MB", float64(b)/(marker*marker))
	default:
		return fmt.Sprintf("%.3f GB", float64(b)/(marker*marker*marker))
	}
}

// EntityKey is symmetric key material. It is only ever displayed in its
// unpadded base64url form.
type EntityKey []byte

// ParseEntityKey decodes an unpadded base64url key.
func ParseEntityKey(s string) (EntityKey, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: entity key is not base64url: %v", ErrInvalidValue, err)
	}
	return EntityKey(b), nil
}

func (k EntityKey) String() string { return base64.RawURLEncoding.EncodeToString(k) }

func (k EntityKey) Equal(other EntityKey) bool { return bytes.Equal(k, other) }
