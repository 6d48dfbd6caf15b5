// Package envelope defines the JSON container produced by encryption and
// signing and consumed by decryption and verification.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"example.com/rsakit/pkg/armor"
	"example.com/rsakit/pkg/util/isotime"
)

// ErrMalformed is returned when an envelope cannot be decoded or carries
// out-of-range values.
var ErrMalformed = errors.New("envelope: malformed")

// Envelope binds a sequence of transformed chunks to the key pair that
// produced them. Size and ChunkSize are optional; when both are present
// the exact byte width of every chunk can be recovered.
//
// IssuedTo is written only when HasIssuedTo is set, as null if empty.
// Signature envelopes carry it; ciphertexts do not.
type Envelope struct {
	KeySerial   string       `json:"key_serial"`
	IssuedTo    string       `json:"-"`
	HasIssuedTo bool         `json:"-"`
	HasCRC      bool         `json:"has_crc"`
	HasPadding  bool         `json:"has_padding"`
	Padding     *int         `json:"padding,omitempty"`
	GeneratedAt isotime.Time `json:"generated_at"`
	Size        *int         `json:"size,omitempty"`
	ChunkSize   int          `json:"chunk_size,omitempty"`
	Compression string       `json:"compression,omitempty"`
	Digest      string       `json:"digest,omitempty"`
	Chunks      []*big.Int   `json:"chunks"`
}

type envelopeFields Envelope

type envelopeJSON struct {
	*envelopeFields
	IssuedTo json.RawMessage `json:"issued_to,omitempty"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	j := envelopeJSON{envelopeFields: (*envelopeFields)(&e)}
	if e.HasIssuedTo {
		j.IssuedTo = json.RawMessage("null")
		if e.IssuedTo != "" {
			b, err := json.Marshal(e.IssuedTo)
			if err != nil {
				return nil, err
			}
			j.IssuedTo = b
		}
	}
	return json.Marshal(j)
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	j := envelopeJSON{envelopeFields: (*envelopeFields)(e)}
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	e.HasIssuedTo = len(j.IssuedTo) > 0
	e.IssuedTo = ""
	if e.HasIssuedTo && string(j.IssuedTo) != "null" {
		if err := json.Unmarshal(j.IssuedTo, &e.IssuedTo); err != nil {
			return err
		}
	}
	return nil
}

// SetPadding records the padding byte and marks the envelope as padded.
func (e *Envelope) SetPadding(b byte) {
	v := int(b)
	e.HasPadding = true
	e.Padding = &v
}

// PaddingByte returns the recorded padding byte, if any.
func (e *Envelope) PaddingByte() (byte, bool) {
	if e.Padding == nil {
		return 0, false
	}
	return byte(*e.Padding), true
}

// SetSize records the plaintext length.
func (e *Envelope) SetSize(n int) { e.Size = &n }

// ContentSize returns the recorded plaintext length, or -1 when absent.
func (e *Envelope) ContentSize() int {
	if e.Size == nil {
		return -1
	}
	return *e.Size
}

// Generated returns the generation time.
func (e *Envelope) Generated() time.Time { return e.GeneratedAt.Time }

// Validate checks value ranges; it does not check any cryptographic binding.
func (e *Envelope) Validate() error {
	if e.Padding != nil && (*e.Padding < 0 || *e.Padding > 0xFF) {
		return fmt.Errorf("%w: padding %d out of byte range", ErrMalformed, *e.Padding)
	}
	if e.Size != nil && *e.Size < 0 {
		return fmt.Errorf("%w: negative size", ErrMalformed)
	}
	if e.ChunkSize < 0 {
		return fmt.Errorf("%w: negative chunk_size", ErrMalformed)
	}
	for i, c := range e.Chunks {
		if c == nil || c.Sign() < 0 {
			return fmt.Errorf("%w: chunk %d is not a non-negative integer", ErrMalformed, i)
		}
	}
	return nil
}

// Marshal encodes e as JSON.
func Marshal(e *Envelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.Chunks == nil {
		tmp := *e
		tmp.Chunks = []*big.Int{}
		e = &tmp
	}
	return json.Marshal(e)
}

// Parse decodes and validates a JSON envelope.
func Parse(b []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Armor encodes e as JSON wrapped in the given banners.
func (e *Envelope) Armor(b armor.Banners) (string, error) {
	raw, err := Marshal(e)
	if err != nil {
		return "", err
	}
	return b.Encode(raw), nil
}

// ParseArmored unarmors text with the given banners and parses the result.
func ParseArmored(text string, b armor.Banners) (*Envelope, error) {
	raw, err := b.Decode(text)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}
