package keywrap

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/ProtonMail/go-crypto/ocb"

	"example.com/rsakit/pkg/keypair"
	"example.com/rsakit/pkg/util/random"
	"example.com/rsakit/pkg/util/securemem"
)

const (
	tokenVersion = 0x01
	nonceSize    = 15
	tagSize      = 16
	headerSize   = 1 + 8
	maxClockSkew = 60 * time.Second
)

type config struct {
	rand  io.Reader
	clock func() time.Time
}

// Option configures a Wrapper.
type Option func(*config)

// WithRand sets the nonce source.
func WithRand(r io.Reader) Option {
	return func(c *config) {
		if r != nil {
			c.rand = r
		}
	}
}

// WithClock sets the clock used to stamp and expire tokens.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// Wrapper seals and opens tokens under one key. The key lives in locked
// memory until Destroy.
type Wrapper struct {
	key *securemem.Secret
	cfg config
}

// New decodes a base64url key as returned by GenerateKey or DeriveKey.
func New(key string, opts ...Option) (*Wrapper, error) {
	raw, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	cfg := config{rand: random.Reader(), clock: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	return &Wrapper{key: securemem.New(raw), cfg: cfg}, nil
}

// Destroy wipes the key. The Wrapper must not be used afterwards.
func (w *Wrapper) Destroy() { w.key.Destroy() }

func (w *Wrapper) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(w.key.Bytes())
	if err != nil {
		return nil, err
	}
	return ocb.NewOCBWithNonceAndTagSize(block, nonceSize, tagSize)
}

// Seal encrypts plaintext into a base64url token:
//
//	version(1) | unix seconds(8) | nonce(15) | ciphertext | tag(16)
//
// The version and timestamp are authenticated.
func (w *Wrapper) Seal(plaintext []byte) (string, error) {
	a, err := w.aead()
	if err != nil {
		return "", err
	}
	header := make([]byte, headerSize)
	header[0] = tokenVersion
	binary.BigEndian.PutUint64(header[1:], uint64(w.cfg.clock().Unix()))
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(w.cfg.rand, nonce); err != nil {
		return "", fmt.Errorf("keywrap: read nonce: %w", err)
	}
	out := make([]byte, 0, headerSize+nonceSize+len(plaintext)+tagSize)
	out = append(append(out, header...), nonce...)
	out = append(out, a.Seal(nil, nonce, plaintext, header)...)
	return encoding.EncodeToString(out), nil
}

// Open authenticates and decrypts a token. A positive ttl rejects tokens
// older than ttl with ErrExpired.
func (w *Wrapper) Open(token string, ttl time.Duration) ([]byte, error) {
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if len(raw) < headerSize+nonceSize+tagSize || raw[0] != tokenVersion {
		return nil, ErrInvalidToken
	}
	a, err := w.aead()
	if err != nil {
		return nil, err
	}
	header, nonce, ct := raw[:headerSize], raw[headerSize:headerSize+nonceSize], raw[headerSize+nonceSize:]
	pt, err := a.Open(nil, nonce, ct, header)
	if err != nil {
		return nil, ErrInvalidToken
	}

	issued := time.Unix(int64(binary.BigEndian.Uint64(header[1:])), 0)
	now := w.cfg.clock()
	if issued.Sub(now) > maxClockSkew {
		return nil, fmt.Errorf("%w: issued in the future", ErrInvalidToken)
	}
	if ttl > 0 && now.Sub(issued) > ttl {
		return nil, ErrExpired
	}
	return pt, nil
}

// WrapPrivateKey seals the armored private key of kp.
func WrapPrivateKey(w *Wrapper, kp *keypair.KeyPair) (string, error) {
	if !kp.HasPrivate() {
		return "", fmt.Errorf("keywrap: key pair has no private key")
	}
	text, err := kp.PrivateArmored()
	if err != nil {
		return "", err
	}
	return w.Seal([]byte(text))
}

// UnwrapPrivateKey opens a token made by WrapPrivateKey.
func UnwrapPrivateKey(w *Wrapper, token string, ttl time.Duration) (keypair.PrivateKey, error) {
	pt, err := w.Open(token, ttl)
	if err != nil {
		return keypair.PrivateKey{}, err
	}
	return keypair.ParsePrivateArmored(string(pt))
}
