package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Default is the digest used when none is named.
const Default = "sha512"

// Digest hashes data with the named algorithm.
func Digest(name string, data []byte) ([]byte, error) {
	switch name {
	case "sha256":
		h := sha256.Sum256(data)
		return h[:], nil
	case "sha384":
		sum := sha512.Sum384(data)
		return sum[:], nil
	case "", "sha512":
		sum := sha512.Sum512(data)
		return sum[:], nil
	case "sha3-512":
		sum := sha3.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash: %s", name)
	}
}

// HexDigest returns the lowercase hex form of Digest.
func HexDigest(name string, data []byte) (string, error) {
	sum, err := Digest(name, data)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// Supported reports whether name is a known algorithm.
func Supported(name string) bool {
	_, err := Digest(name, nil)
	return err == nil
}
