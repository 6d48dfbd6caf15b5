package keywrap

import "errors"

var (
	// ErrInvalidKey means a key is not base64url text of KeySize bytes.
	ErrInvalidKey = errors.New("keywrap: key must be 32 bytes, base64url encoded")

	// ErrMissingSalt is returned by DeriveKey for a password without salt.
	ErrMissingSalt = errors.New("keywrap: password given without salt")

	// ErrInvalidToken covers malformed, forged and future-dated tokens and
	// tokens sealed under another key.
	ErrInvalidToken = errors.New("keywrap: invalid token")

	// ErrExpired is returned by Open for tokens older than the ttl.
	ErrExpired = errors.New("keywrap: token expired")
)
