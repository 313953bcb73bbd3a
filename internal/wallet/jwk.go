// Package wallet loads ledger wallets stored as RSA JSON Web Keys.
package wallet

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"arfs-go/internal/arfs"
)

// JWK is the on-disk form of a wallet key. All numbers are unpadded base64url.
type JWK struct {
	Kty string `json:"kty"`
	E   string `json:"e"`
	N   string `json:"n"`
	D   string `json:"d,omitempty"`
	P   string `json:"p,omitempty"`
	Q   string `json:"q,omitempty"`
	DP  string `json:"dp,omitempty"`
	DQ  string `json:"dq,omitempty"`
	QI  string `json:"qi,omitempty"`
}

// Wallet is an RSA keypair able to derive its address and sign drive key
// inputs.
type Wallet struct {
	key *rsa.PrivateKey
	jwk JWK
}

// Load reads a JWK wallet file.
func Load(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wallet file: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading wallet from %s: %w", path, err)
	}
	return w, nil
}

// Parse decodes a JWK wallet.
func Parse(data []byte) (*Wallet, error) {
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("decoding jwk: %w", err)
	}
	if jwk.Kty != "" && jwk.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", jwk.Kty)
	}

	fields := []struct {
		name string
		val  string
	}{
		{"n", jwk.N}, {"e", jwk.E}, {"d", jwk.D}, {"p", jwk.P}, {"q", jwk.Q},
	}
	nums := make(map[string]*big.Int, len(fields))
	for _, f := range fields {
		if f.val == "" {
			return nil, fmt.Errorf("jwk is missing %q", f.name)
		}
		n, err := decodeBigInt(f.val)
		if err != nil {
			return nil, fmt.Errorf("decoding jwk %q: %w", f.name, err)
		}
		nums[f.name] = n
	}
	if !nums["e"].IsInt64() {
		return nil, fmt.Errorf("jwk exponent is too large")
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: nums["n"], E: int(nums["e"].Int64())},
		D:         nums["d"],
		Primes:    []*big.Int{nums["p"], nums["q"]},
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("validating jwk: %w", err)
	}
	key.Precompute()

	return &Wallet{key: key, jwk: jwk}, nil
}

// FromKey wraps an existing RSA key.
func FromKey(key *rsa.PrivateKey) *Wallet {
	key.Precompute()
	enc := func(n *big.Int) string { return base64.RawURLEncoding.EncodeToString(n.Bytes()) }
	jwk := JWK{
		Kty: "RSA",
		E:   enc(big.NewInt(int64(key.E))),
		N:   enc(key.N),
		D:   enc(key.D),
		P:   enc(key.Primes[0]),
		Q:   enc(key.Primes[1]),
		DP:  enc(key.Precomputed.Dp),
		DQ:  enc(key.Precomputed.Dq),
		QI:  enc(key.Precomputed.Qinv),
	}
	return &Wallet{key: key, jwk: jwk}
}

// JWK returns the wallet in its serialisable form.
func (w *Wallet) JWK() JWK { return w.jwk }

// PublicKey returns the modulus as unpadded base64url, which is the owner
// field of ledger transactions.
func (w *Wallet) PublicKey() string {
	return base64.RawURLEncoding.EncodeToString(w.key.N.Bytes())
}

// RSAPublicKey exposes the public half for signature verification.
func (w *Wallet) RSAPublicKey() *rsa.PublicKey { return &w.key.PublicKey }

// Address is the base64url SHA-256 digest of the modulus.
func (w *Wallet) Address() arfs.Address {
	sum := sha256.Sum256(w.key.N.Bytes())
	return arfs.Address(base64.RawURLEncoding.EncodeToString(sum[:]))
}

func decodeBigInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
