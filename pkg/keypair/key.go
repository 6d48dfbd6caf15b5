package keypair

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"example.com/rsakit/pkg/armor"
	"example.com/rsakit/pkg/util/isotime"
)

// Kind selects between the public and private halves of a pair.
type Kind int

const (
	KindPublic Kind = iota
	KindPrivate
)

func (k Kind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindPrivate:
		return "private"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Banners returns the armor markers for k.
func (k Kind) Banners() (armor.Banners, error) {
	switch k {
	case KindPublic:
		return armor.PublicKey, nil
	case KindPrivate:
		return armor.PrivateKey, nil
	default:
		return armor.Banners{}, fmt.Errorf("%w: %v", ErrUnknownKind, k)
	}
}

// Key is one of Metadata, PublicKey or PrivateKey.
type Key interface {
	Base() Metadata
	isKey()
}

// Metadata is the part shared by both key kinds.
type Metadata struct {
	IssuedAt time.Time
	IssuedTo string
	Serial   string
	// Size is the bit length of each prime factor, not of N.
	Size int
	N    *big.Int
}

func (m Metadata) Base() Metadata { return m }
func (Metadata) isKey()           {}

// Equal compares every field.
func (m Metadata) Equal(o Metadata) bool {
	return m.IssuedAt.Equal(o.IssuedAt) &&
		m.IssuedTo == o.IssuedTo &&
		m.Serial == o.Serial &&
		m.Size == o.Size &&
		bigEqual(m.N, o.N)
}

func (m Metadata) clone() Metadata {
	m.N = cloneInt(m.N)
	return m
}

// PublicKey is a detached snapshot of the public half.
type PublicKey struct {
	Metadata
	E *big.Int
}

// Complete reports whether k can encrypt or verify.
func (k PublicKey) Complete() bool { return k.N != nil && k.E != nil }

func (k PublicKey) Equal(o PublicKey) bool {
	return k.Metadata.Equal(o.Metadata) && bigEqual(k.E, o.E)
}

// PrivateKey is a detached snapshot of the private half.
type PrivateKey struct {
	Metadata
	D *big.Int
}

// Complete reports whether k can decrypt or sign.
func (k PrivateKey) Complete() bool { return k.N != nil && k.D != nil }

func (k PrivateKey) Equal(o PrivateKey) bool {
	return k.Metadata.Equal(o.Metadata) && bigEqual(k.D, o.D)
}

// keyJSON is the canonical wire form. Python-era exports used "bits"
// for the prime size; it is still read.
type keyJSON struct {
	IssuedAt isotime.Time `json:"issued_at"`
	IssuedTo *string      `json:"issued_to"`
	Serial   *string      `json:"serial"`
	Size     *int         `json:"size"`
	Bits     *int         `json:"bits,omitempty"`
	N        *big.Int     `json:"n"`
	E        *big.Int     `json:"e,omitempty"`
	D        *big.Int     `json:"d,omitempty"`
}

func metadataJSON(m Metadata) keyJSON {
	j := keyJSON{IssuedAt: isotime.Time{Time: m.IssuedAt}, N: m.N}
	if m.IssuedTo != "" {
		j.IssuedTo = &m.IssuedTo
	}
	if m.Serial != "" {
		j.Serial = &m.Serial
	}
	if m.Size != 0 {
		j.Size = &m.Size
	}
	return j
}

func (j keyJSON) metadata() Metadata {
	m := Metadata{IssuedAt: isotime.Normalize(j.IssuedAt.Time), N: j.N}
	if j.IssuedTo != nil {
		m.IssuedTo = *j.IssuedTo
	}
	if j.Serial != nil {
		m.Serial = *j.Serial
	}
	switch {
	case j.Size != nil:
		m.Size = *j.Size
	case j.Bits != nil:
		m.Size = *j.Bits
	}
	return m
}

func (k PublicKey) MarshalJSON() ([]byte, error) {
	j := metadataJSON(k.Metadata)
	j.E = k.E
	return json.Marshal(j)
}

func (k PrivateKey) MarshalJSON() ([]byte, error) {
	j := metadataJSON(k.Metadata)
	j.D = k.D
	return json.Marshal(j)
}

// Armor serializes k to JSON and wraps it in the public key banners.
func (k PublicKey) Armor() (string, error) {
	b, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("keypair: encode public key: %w", err)
	}
	return armor.PublicKey.Encode(b), nil
}

// Armor serializes k to JSON and wraps it in the private key banners.
func (k PrivateKey) Armor() (string, error) {
	b, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("keypair: encode private key: %w", err)
	}
	return armor.PrivateKey.Encode(b), nil
}

// ParseArmored decodes an armored key of the given kind. The result is a
// PublicKey or a PrivateKey.
func ParseArmored(text string, kind Kind) (Key, error) {
	banners, err := kind.Banners()
	if err != nil {
		return nil, err
	}
	raw, err := banners.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	var j keyJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if j.N == nil {
		return nil, ErrMissingModulus
	}
	switch kind {
	case KindPrivate:
		if j.D == nil {
			return nil, fmt.Errorf("%w: d", ErrMissingExponent)
		}
		return PrivateKey{Metadata: j.metadata(), D: j.D}, nil
	default:
		if j.E == nil {
			return nil, fmt.Errorf("%w: e", ErrMissingExponent)
		}
		return PublicKey{Metadata: j.metadata(), E: j.E}, nil
	}
}

// ParsePublicArmored decodes an armored public key.
func ParsePublicArmored(text string) (PublicKey, error) {
	k, err := ParseArmored(text, KindPublic)
	if err != nil {
		return PublicKey{}, err
	}
	return k.(PublicKey), nil
}

// ParsePrivateArmored decodes an armored private key.
func ParsePrivateArmored(text string) (PrivateKey, error) {
	k, err := ParseArmored(text, KindPrivate)
	if err != nil {
		return PrivateKey{}, err
	}
	return k.(PrivateKey), nil
}

func bigEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

func cloneInt(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}
