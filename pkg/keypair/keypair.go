package keypair

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"example.com/rsakit/pkg/keymath"
	"example.com/rsakit/pkg/util/isotime"
)

// KeyPair holds RSA parameters and their metadata. It starts empty and is
// filled exactly once, either by Generate or by loading keys. A KeyPair is
// not safe for concurrent mutation.
type KeyPair struct {
	n, phiN, e, d *big.Int

	size     int
	issuedAt time.Time
	issuedTo string
	serial   string

	hasPublic  bool
	hasPrivate bool

	cfg config
}

// New returns an empty KeyPair.
func New(opts ...Option) *KeyPair {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &KeyPair{cfg: cfg}
}

// Generate draws two distinct primes of bits bits each and derives the
// pair. It fails if the pair already holds key material or bits < MinBits.
// On failure the pair is left untouched.
func (kp *KeyPair) Generate(bits int, opts ...GenerateOption) error {
	if kp.hasPublic || kp.hasPrivate {
		return ErrAlreadyInitialized
	}
	if bits < MinBits {
		return fmt.Errorf("%w: %d bits (minimum %d)", ErrKeyTooSmall, bits, MinBits)
	}
	var g generateConfig
	for _, o := range opts {
		o(&g)
	}
	log := kp.cfg.logger.With("op", "generate", "bits", bits)

	p, err := kp.primeOrDraw(g.p, bits)
	if err != nil {
		return err
	}
	q, err := kp.primeOrDraw(g.q, bits)
	if err != nil {
		return err
	}

	var phi, e *big.Int
	for attempt := 0; ; attempt++ {
		for p.Cmp(q) == 0 {
			if q, err = keymath.GeneratePrime(kp.cfg.rand, bits); err != nil {
				return err
			}
		}
		phi = keymath.Totient(p, q)
		if e = keymath.BestExponent(phi); e != nil {
			break
		}
		if attempt >= kp.cfg.maxRetries {
			log.Warn("giving up on exponent search", "attempts", attempt+1)
			return fmt.Errorf("%w after %d attempts", ErrExponentNotFound, attempt+1)
		}
		log.Debug("no exponent for phi, redrawing q", "attempt", attempt+1)
		if q, err = keymath.GeneratePrime(kp.cfg.rand, bits); err != nil {
			return err
		}
	}

	d, ok := keymath.ModInverse(e, phi)
	if !ok {
		// BestExponent only returns values coprime with phi.
		panic("keypair: exponent has no inverse")
	}
	id, err := uuid.NewRandomFromReader(kp.cfg.rand)
	if err != nil {
		return fmt.Errorf("keypair: serial: %w", err)
	}

	issuedAt := isotime.Normalize(g.issuedAt)
	if issuedAt.IsZero() {
		issuedAt = isotime.Now(kp.cfg.clock)
	}

	kp.size = bits
	kp.n = new(big.Int).Mul(p, q)
	kp.phiN = phi
	kp.e = e
	kp.d = d
	kp.issuedTo = g.issuedTo
	kp.issuedAt = issuedAt
	kp.serial = id.String()
	kp.hasPublic = true
	kp.hasPrivate = true
	log.Info("key pair generated", "serial", kp.serial, "modulus_bits", kp.n.BitLen())
	return nil
}

func (kp *KeyPair) primeOrDraw(x *big.Int, bits int) (*big.Int, error) {
	if keymath.IsPrime(x) {
		return new(big.Int).Set(x), nil
	}
	return keymath.GeneratePrime(kp.cfg.rand, bits)
}

// Public returns a detached snapshot of the public half.
func (kp *KeyPair) Public() PublicKey {
	return PublicKey{Metadata: kp.metadata(), E: cloneInt(kp.e)}
}

// Private returns a detached snapshot of the private half.
func (kp *KeyPair) Private() PrivateKey {
	return PrivateKey{Metadata: kp.metadata(), D: cloneInt(kp.d)}
}

// PublicArmored returns the public half as armored text.
func (kp *KeyPair) PublicArmored() (string, error) { return kp.Public().Armor() }

// PrivateArmored returns the private half as armored text.
func (kp *KeyPair) PrivateArmored() (string, error) { return kp.Private().Armor() }

func (kp *KeyPair) metadata() Metadata {
	return Metadata{
		IssuedAt: kp.issuedAt,
		IssuedTo: kp.issuedTo,
		Serial:   kp.serial,
		Size:     kp.size,
		N:        cloneInt(kp.n),
	}
}

// LoadKey merges a key value into the pair. Every metadata field already
// set on the pair must match the key's. A PublicKey or PrivateKey must
// carry its modulus and exponent and sets the matching capability; a bare
// Metadata only merges metadata. A capability can be loaded only once.
func (kp *KeyPair) LoadKey(k Key) error {
	if k == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	switch k := k.(type) {
	case PublicKey:
		if kp.hasPublic {
			return ErrAlreadyInitialized
		}
		if err := checkMaterial(k.N, k.E, "e"); err != nil {
			return err
		}
		if err := kp.mergeBase(k.Metadata); err != nil {
			return err
		}
		kp.e = cloneInt(k.E)
		kp.hasPublic = true
	case PrivateKey:
		if kp.hasPrivate {
			return ErrAlreadyInitialized
		}
		if err := checkMaterial(k.N, k.D, "d"); err != nil {
			return err
		}
		if err := kp.mergeBase(k.Metadata); err != nil {
			return err
		}
		kp.d = cloneInt(k.D)
		kp.hasPrivate = true
	case Metadata:
		return kp.mergeBase(k)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidKey, k)
	}
	kp.cfg.logger.Debug("key loaded", "kind", fmt.Sprintf("%T", k), "serial", kp.serial)
	return nil
}

// LoadArmored decodes armored text of the given kind and loads it.
func (kp *KeyPair) LoadArmored(text string, kind Kind) error {
	k, err := ParseArmored(text, kind)
	if err != nil {
		kp.cfg.logger.Debug("armored key rejected", "kind", kind.String(), "err", err)
		return err
	}
	return kp.LoadKey(k)
}

func checkMaterial(n, exp *big.Int, name string) error {
	if n == nil {
		return ErrMissingModulus
	}
	if exp == nil {
		return fmt.Errorf("%w: %s", ErrMissingExponent, name)
	}
	return nil
}

func (kp *KeyPair) sameBaseMetadata(m Metadata) bool {
	return (kp.issuedAt.IsZero() || kp.issuedAt.Equal(m.IssuedAt)) &&
		(kp.issuedTo == "" || kp.issuedTo == m.IssuedTo) &&
		(kp.serial == "" || kp.serial == m.Serial) &&
		(kp.size == 0 || kp.size == m.Size) &&
		(kp.n == nil || bigEqual(kp.n, m.N))
}

func (kp *KeyPair) mergeBase(m Metadata) error {
	if !kp.sameBaseMetadata(m) {
		return ErrMetadataMismatch
	}
	m = m.clone()
	kp.issuedAt = m.IssuedAt
	kp.issuedTo = m.IssuedTo
	kp.serial = m.Serial
	kp.size = m.Size
	kp.n = m.N
	return nil
}

func (kp *KeyPair) N() *big.Int { return cloneInt(kp.n) }
func (kp *KeyPair) E() *big.Int { return cloneInt(kp.e) }
func (kp *KeyPair) D() *big.Int { return cloneInt(kp.d) }

// PhiN is only known for generated pairs.
func (kp *KeyPair) PhiN() *big.Int { return cloneInt(kp.phiN) }

func (kp *KeyPair) Size() int           { return kp.size }
func (kp *KeyPair) IssuedAt() time.Time { return kp.issuedAt }
func (kp *KeyPair) IssuedTo() string    { return kp.issuedTo }
func (kp *KeyPair) Serial() string      { return kp.serial }
func (kp *KeyPair) HasPublic() bool     { return kp.hasPublic }
func (kp *KeyPair) HasPrivate() bool    { return kp.hasPrivate }

// Equal compares parameters, metadata and capabilities.
func (kp *KeyPair) Equal(o *KeyPair) bool {
	if kp == nil || o == nil {
		return kp == o
	}
	return bigEqual(kp.n, o.n) &&
		bigEqual(kp.phiN, o.phiN) &&
		bigEqual(kp.e, o.e) &&
		bigEqual(kp.d, o.d) &&
		kp.size == o.size &&
		kp.issuedAt.Equal(o.issuedAt) &&
		kp.issuedTo == o.issuedTo &&
		kp.serial == o.serial &&
		kp.hasPublic == o.hasPublic &&
		kp.hasPrivate == o.hasPrivate
}

type summary struct {
	Size       int        `json:"size"`
	IssuedAt   string     `json:"issued_at,omitempty"`
	IssuedTo   string     `json:"issued_to,omitempty"`
	Serial     string     `json:"serial,omitempty"`
	HasPrivate bool       `json:"has_private"`
	HasPublic  bool       `json:"has_public"`
	Public     *publicSum `json:"public,omitempty"`
}

type publicSum struct {
	N *big.Int `json:"n"`
	E *big.Int `json:"e"`
}

// String renders a JSON summary. Private parameters are left out.
func (kp *KeyPair) String() string {
	s := summary{
		Size:       kp.size,
		IssuedTo:   kp.issuedTo,
		Serial:     kp.serial,
		HasPrivate: kp.hasPrivate,
		HasPublic:  kp.hasPublic,
	}
	if !kp.issuedAt.IsZero() {
		s.IssuedAt = kp.issuedAt.Format("2006-01-02 15:04:05 MST")
	}
	if kp.hasPublic {
		s.Public = &publicSum{N: kp.n, E: kp.e}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Sprintf("keypair(%s)", kp.serial)
	}
	return string(b)
}

// LogValue keeps key material out of structured logs.
func (kp *KeyPair) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("serial", kp.serial),
		slog.Int("size", kp.size),
		slog.Bool("has_public", kp.hasPublic),
		slog.Bool("has_private", kp.hasPrivate),
	)
}
