package wallet

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// Sign produces an RSA-PSS signature over SHA-256(data) with a zero length
// salt. crypto/rsa interprets a zero SaltLength as "auto", so the EMSA-PSS
// encoding (RFC 8017 section 9.1.1) is done here.
func (w *Wallet) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)

	modBits := w.key.N.BitLen()
	em, err := encodePSS(digest[:], modBits-1)
	if err != nil {
		return nil, fmt.Errorf("encoding pss message: %w", err)
	}

	m := new(big.Int).SetBytes(em)
	if m.Cmp(w.key.N) >= 0 {
		return nil, errors.New("encoded message larger than modulus")
	}
	s, err := privateOp(w.key, m)
	if err != nil {
		return nil, err
	}

	k := (modBits + 7) / 8
	return s.FillBytes(make([]byte, k)), nil
}

// privateOp computes m^d mod n with CRT and base blinding. The result is
// checked against the public exponent before it is returned.
func privateOp(key *rsa.PrivateKey, m *big.Int) (*big.Int, error) {
	n := key.N
	e := big.NewInt(int64(key.E))

	var r, rInv *big.Int
	for {
		var err error
		r, err = rand.Int(rand.Reader, n)
		if err != nil {
			return nil, fmt.Errorf("blinding: %w", err)
		}
		if r.Sign() == 0 {
			continue
		}
		if rInv = new(big.Int).ModInverse(r, n); rInv != nil {
			break
		}
	}
	c := new(big.Int).Exp(r, e, n)
	c.Mul(c, m).Mod(c, n)

	var s *big.Int
	pre := key.Precomputed
	if len(key.Primes) == 2 && pre.Dp != nil && pre.Dq != nil && pre.Qinv != nil {
		p, q := key.Primes[0], key.Primes[1]
		m1 := new(big.Int).Exp(c, pre.Dp, p)
		m2 := new(big.Int).Exp(c, pre.Dq, q)
		h := new(big.Int).Sub(m1, m2)
		h.Mul(h, pre.Qinv).Mod(h, p)
		s = h.Mul(h, q).Add(h, m2)
	} else {
		s = new(big.Int).Exp(c, key.D, n)
	}
	s.Mul(s, rInv).Mod(s, n)

	if new(big.Int).Exp(s, e, n).Cmp(m) != 0 {
		return nil, errors.New("rsa private operation failed verification")
	}
	return s, nil
}

func encodePSS(mHash []byte, emBits int) ([]byte, error) {
	hLen := sha256.Size
	emLen := (emBits + 7) / 8
	if emLen < hLen+2 {
		return nil, errors.New("key too small for sha256 pss")
	}

	// M' = 8 zero bytes || mHash, salt is empty.
	h := sha256.New()
	h.Write(make([]byte, 8))
	h.Write(mHash)
	hash := h.Sum(nil)

	// DB = PS || 0x01
	db := make([]byte, emLen-hLen-1)
	db[len(db)-1] = 0x01

	mask := mgf1SHA256(hash, len(db))
	for i := range db {
		db[i] ^= mask[i]
	}
	db[0] &= 0xff >> (8*emLen - emBits)

	em := make([]byte, 0, emLen)
	em = append(em, db...)
	em = append(em, hash...)
	em = append(em, 0xbc)
	return em, nil
}

func mgf1SHA256(seed []byte, length int) []byte {
	out := make([]byte, 0, length+sha256.Size)
	var counter [4]byte
	for i := uint32(0); len(out) < length; i++ {
		binary.BigEndian.PutUint32(counter[:], i)
		h := sha256.New()
		h.Write(seed)
		h.Write(counter[:])
		out = h.Sum(out)
	}
	return out[:length]
}
