package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"arfs-go/internal/wallet"
)

var (
	walletOnce sync.Once
	testWallet *wallet.Wallet
	walletErr  error
)

// TestWallet returns a 2048-bit wallet shared by every test in the binary.
func TestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	walletOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			walletErr = err
			return
		}
		testWallet = wallet.FromKey(key)
	})
	if walletErr != nil {
		t.Fatalf("generating test wallet: %v", walletErr)
	}
	return testWallet
}

// WriteTestWallet writes the shared test wallet as a JWK file under a temp
// dir and returns its path.
func WriteTestWallet(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(TestWallet(t).JWK())
	if err != nil {
		t.Fatalf("encoding wallet: %v", err)
	}
	path := filepath.Join(t.TempDir(), "wallet.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("writing wallet: %v", err)
	}
	return path
}
