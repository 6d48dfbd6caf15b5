// Package keywrap seals small secrets, such as an armored private key,
// under a symmetric key. Tokens are AES-256-OCB ciphertexts carrying their
// creation time.
package keywrap

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/scrypt"

	"example.com/rsakit/pkg/util/securemem"
)

// KeySize is the raw key length in bytes.
const KeySize = 32

// scrypt cost parameters for DeriveKey.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var encoding = base64.URLEncoding

// GenerateKey returns a fresh random key, base64url encoded. The raw key
// only exists in locked memory.
func GenerateKey() (string, error) {
	s := securemem.NewRandom(KeySize)
	defer s.Destroy()
	return encoding.EncodeToString(s.Bytes()), nil
}

// DeriveKey stretches password with scrypt. An empty password yields a
// random key and ignores salt.
func DeriveKey(password, salt []byte) (string, error) {
	if len(password) == 0 {
		return GenerateKey()
	}
	if len(salt) == 0 {
		return "", ErrMissingSalt
	}
	raw, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return "", fmt.Errorf("keywrap: scrypt: %w", err)
	}
	return encoding.EncodeToString(raw), nil
}

func decodeKey(key string) ([]byte, error) {
	raw, err := encoding.DecodeString(key)
	if err != nil || len(raw) != KeySize {
		return nil, ErrInvalidKey
	}
	return raw, nil
}
