package keypair

import "errors"

var (
	// ErrAlreadyInitialized is returned when generating into, or loading
	// an already present capability into, a pair that holds key material.
	ErrAlreadyInitialized = errors.New("keypair: key material already present")

	// ErrKeyTooSmall is returned when the requested prime size is below MinBits.
	ErrKeyTooSmall = errors.New("keypair: key size too small")

	// ErrExponentNotFound is returned when no usable public exponent was
	// found within the redraw limit. Very small sizes can hit this forever.
	ErrExponentNotFound = errors.New("keypair: no usable public exponent")

	// ErrMetadataMismatch is returned when a key's metadata disagrees with
	// the metadata already loaded into the pair.
	ErrMetadataMismatch = errors.New("keypair: key metadata does not match pair")

	// ErrUnknownKind is returned for a kind other than KindPublic or KindPrivate.
	ErrUnknownKind = errors.New("keypair: unknown key kind")

	// ErrMissingModulus is returned when a key carries no modulus.
	ErrMissingModulus = errors.New("keypair: missing modulus")

	// ErrMissingExponent is returned when a key carries no exponent of its kind.
	ErrMissingExponent = errors.New("keypair: missing exponent")

	// ErrInvalidKey is returned when serialized key material cannot be decoded.
	ErrInvalidKey = errors.New("keypair: invalid key encoding")
)
