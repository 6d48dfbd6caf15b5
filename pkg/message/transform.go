package message

import (
	"errors"
	"fmt"
	"math/big"

	"example.com/rsakit/pkg/armor"
	"example.com/rsakit/pkg/compress"
	"example.com/rsakit/pkg/envelope"
	"example.com/rsakit/pkg/keypair"
	"example.com/rsakit/pkg/util/isotime"
)

// EncryptOptions controls chunk framing for Encrypt. A zero ChunkSize
// selects DefaultChunkSize for the key.
type EncryptOptions struct {
	Padding     bool
	PaddingByte []byte
	CRC         bool
	ChunkSize   int
	Compression string
}

// DefaultEncryptOptions enables CRC and padding with DefaultPaddingByte.
func DefaultEncryptOptions() EncryptOptions {
	return EncryptOptions{
		Padding:     true,
		PaddingByte: []byte{DefaultPaddingByte},
		CRC:         true,
	}
}

// DefaultChunkSize returns the widest chunk, in bytes, that is always below
// a modulus built from two primes of size bits with their top bit set.
func DefaultChunkSize(size int) int {
	if size < 1 {
		return 0
	}
	return (2*size - 2) / 8
}

func chunkSizeFor(k keypair.Metadata) int {
	if k.Size > 0 {
		return DefaultChunkSize(k.Size)
	}
	// unknown prime size: n has at least BitLen-1 free bits
	return (k.N.BitLen() - 1) / 8
}

// Encrypt chunks the content and raises every chunk to e mod n. Every
// chunk must be below n, otherwise ErrChunkTooLarge is returned.
func (m *Message) Encrypt(pub keypair.PublicKey, o EncryptOptions) (*envelope.Envelope, error) {
	if !pub.Complete() {
		return nil, ErrMissingKeyMaterial
	}
	if m.content == nil {
		return nil, ErrNoContent
	}
	codec, err := compress.Get(o.Compression)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Compress(m.content)
	if err != nil {
		return nil, fmt.Errorf("message: compress: %w", err)
	}

	size := o.ChunkSize
	if size == 0 {
		size = chunkSizeFor(pub.Metadata)
	}
	p := Params{Size: size, Padding: o.Padding, PaddingByte: o.PaddingByte, CRC: o.CRC}
	chunks, err := DumpsInts(payload, p)
	if err != nil {
		return nil, err
	}
	if err := transform(chunks, pub.E, pub.N); err != nil {
		return nil, err
	}

	env := &envelope.Envelope{
		KeySerial:   pub.Serial,
		HasCRC:      o.CRC,
		GeneratedAt: isotime.Time{Time: isotime.Now(m.cfg.clock)},
		ChunkSize:   size,
		Chunks:      chunks,
	}
	if o.Padding {
		pad, _ := p.padByte()
		env.SetPadding(pad)
	}
	if codec.Name() != compress.None {
		env.Compression = codec.Name()
	}
	env.SetSize(len(payload))
	return env, nil
}

// EncryptArmored is Encrypt followed by JSON encoding and armoring.
func (m *Message) EncryptArmored(pub keypair.PublicKey, o EncryptOptions) (string, error) {
	env, err := m.Encrypt(pub, o)
	if err != nil {
		return "", err
	}
	return env.Armor(armor.EncryptedMessage)
}

// Decrypt raises every chunk to d mod n, checks the framing recorded in
// env and replaces the content. On any failure the content is unchanged.
func (m *Message) Decrypt(priv keypair.PrivateKey, env *envelope.Envelope) error {
	err := m.decrypt(priv, env)
	if err != nil {
		m.cfg.logger.Debug("ciphertext rejected", "serial", priv.Serial, "err", err)
	}
	return err
}

func (m *Message) decrypt(priv keypair.PrivateKey, env *envelope.Envelope) error {
	if !priv.Complete() {
		return ErrMissingKeyMaterial
	}
	if env == nil {
		return fmt.Errorf("%w: nil envelope", envelope.ErrMalformed)
	}
	if err := env.Validate(); err != nil {
		return err
	}
	if env.KeySerial != priv.Serial {
		return ErrSerialMismatch
	}
	if err := checkChunkSize(env.ChunkSize, priv.N); err != nil {
		return err
	}
	codec, err := compress.Get(env.Compression)
	if err != nil {
		return fmt.Errorf("%w: %w", envelope.ErrMalformed, err)
	}

	var payload []byte
	if len(env.Chunks) == 0 && env.ContentSize() == 0 {
		payload = []byte{}
	} else {
		chunks := cloneInts(env.Chunks)
		if err := transform(chunks, priv.D, priv.N); err != nil {
			return err
		}
		if payload, err = LoadsInts(chunks, paramsOf(env), widthHint(env)); err != nil {
			return err
		}
	}
	content, err := codec.Decompress(payload)
	if err != nil {
		return fmt.Errorf("message: decompress: %w", err)
	}
	if content == nil {
		content = []byte{}
	}
	m.content = content
	return nil
}

// DecryptArmored unarmors and parses text, then calls Decrypt.
func (m *Message) DecryptArmored(priv keypair.PrivateKey, text string) error {
	env, err := envelope.ParseArmored(text, armor.EncryptedMessage)
	if err != nil {
		m.cfg.logger.Debug("ciphertext rejected", "serial", priv.Serial, "err", err)
		return err
	}
	return m.Decrypt(priv, env)
}

// paramsOf rebuilds codec parameters from an envelope. A padded envelope
// without a recorded byte uses DefaultPaddingByte.
func paramsOf(env *envelope.Envelope) Params {
	p := Params{Size: env.ChunkSize, Padding: env.HasPadding, CRC: env.HasCRC}
	if pad, ok := env.PaddingByte(); ok {
		p.PaddingByte = []byte{pad}
	}
	return p
}

// widthHint returns the payload length when exact chunk widths can be
// recovered, or -1.
func widthHint(env *envelope.Envelope) int {
	if env.ChunkSize < 2 {
		return -1
	}
	return env.ContentSize()
}

// checkChunkSize rejects a recorded chunk width no chunk below n can have.
func checkChunkSize(size int, n *big.Int) error {
	if size > (n.BitLen()+7)/8 {
		return fmt.Errorf("%w: chunk_size %d exceeds the %d-bit modulus", envelope.ErrMalformed, size, n.BitLen())
	}
	return nil
}

// transform replaces every chunk c with c^exp mod n in place.
func transform(chunks []*big.Int, exp, n *big.Int) error {
	for i, c := range chunks {
		if c.Cmp(n) >= 0 {
			return fmt.Errorf("%w: chunk %d", ErrChunkTooLarge, i)
		}
		c.Exp(c, exp, n)
	}
	return nil
}

func cloneInts(in []*big.Int) []*big.Int {
	out := make([]*big.Int, len(in))
	for i, c := range in {
		out[i] = new(big.Int).Set(c)
	}
	return out
}

// IsIntegrityError reports whether err means the data was altered or was
// made for another key, as opposed to being malformed.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrCRCMismatch) ||
		errors.Is(err, ErrPaddingMismatch) ||
		errors.Is(err, ErrSerialMismatch) ||
		errors.Is(err, ErrChunkCount) ||
		errors.Is(err, ErrChunkOverflow) ||
		errors.Is(err, ErrChunkTooLarge)
}
