package wallet

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"arfs-go/internal/arfs"
)

var (
	testWalletOnce sync.Once
	testWallet     *Wallet
)

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	testWalletOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testWallet = FromKey(k)
	})
	return testWallet
}

func TestWallet_SignVerifiesWithZeroSalt(t *testing.T) {
	t.Parallel()
	w := newTestWallet(t)

	data := []byte("drive\x00\x01\x02\x03")
	sig, err := w.Sign(data)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(sig) != 256 {
		t.Fatalf("len(Sign()) = %d, want 256", len(sig))
	}

	digest := sha256.Sum256(data)
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
	if err := rsa.VerifyPSS(w.RSAPublicKey(), crypto.SHA256, digest[:], sig, opts); err != nil {
		t.Errorf("VerifyPSS() error = %v", err)
	}
}

func TestWallet_SignIsDeterministic(t *testing.T) {
	t.Parallel()
	w := newTestWallet(t)

	a, err := w.Sign([]byte("same input"))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	b, err := w.Sign([]byte("same input"))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if string(a) != string(b) {
		t.Error("zero-salt signatures over the same input differ")
	}
}

func TestWallet_Address(t *testing.T) {
	t.Parallel()
	w := newTestWallet(t)

	addr := w.Address()
	if _, err := arfs.ParseAddress(string(addr)); err != nil {
		t.Errorf("Address() = %q is not a valid address: %v", addr, err)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	t.Parallel()
	w := newTestWallet(t)

	data, err := json.Marshal(w.JWK())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "wallet.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Address() != w.Address() {
		t.Errorf("Load().Address() = %s, want %s", loaded.Address(), w.Address())
	}
	if loaded.PublicKey() != w.PublicKey() {
		t.Error("Load().PublicKey() differs from original")
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "{"},
		{name: "wrong kty", input: `{"kty":"EC"}`},
		{name: "missing d", input: `{"kty":"RSA","n":"AQAB","e":"AQAB"}`},
		{name: "bad base64", input: `{"kty":"RSA","n":"!!","e":"AQAB","d":"AQAB","p":"AQAB","q":"AQAB"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.input)); err == nil {
				t.Errorf("Parse(%s) error = nil, want error", tt.input)
			}
		})
	}
}

func TestPrivateOp_MatchesPlainExponentiation(t *testing.T) {
	t.Parallel()
	w := newTestWallet(t)

	noCRT := &rsa.PrivateKey{PublicKey: w.key.PublicKey, D: w.key.D}
	keys := map[string]*rsa.PrivateKey{"crt": w.key, "plain": noCRT}
	m := new(big.Int).SetBytes([]byte("an encoded pss message"))
	want := new(big.Int).Exp(m, w.key.D, w.key.N)

	for name, key := range keys {
		for i := 0; i < 3; i++ {
			got, err := privateOp(key, m)
			if err != nil {
				t.Fatalf("%s: privateOp() error = %v", name, err)
			}
			if got.Cmp(want) != 0 {
				t.Errorf("%s: privateOp() = %x, want %x", name, got, want)
			}
		}
	}
}
