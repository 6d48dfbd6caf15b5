package message

import (
	"crypto/subtle"
	"fmt"
	"time"

	"example.com/rsakit/pkg/armor"
	"example.com/rsakit/pkg/crypto/hash"
	"example.com/rsakit/pkg/envelope"
	"example.com/rsakit/pkg/keypair"
	"example.com/rsakit/pkg/util/isotime"
)

// SignChunkSize is the chunk width used for signatures: a CRC byte and
// three digest characters, so every chunk is below 2^32.
const SignChunkSize = 4

// Sign hex-digests the content, chunks the digest text with CRC and no
// padding, and raises every chunk to d mod n. Keys whose modulus is not
// above 2^32 cannot sign (ErrChunkTooLarge).
func (m *Message) Sign(priv keypair.PrivateKey) (*envelope.Envelope, error) {
	if !priv.Complete() {
		return nil, ErrMissingKeyMaterial
	}
	digest, err := m.Digest()
	if err != nil {
		return nil, err
	}
	chunks, err := DumpsInts([]byte(digest), Params{Size: SignChunkSize, CRC: true})
	if err != nil {
		return nil, err
	}
	if err := transform(chunks, priv.D, priv.N); err != nil {
		return nil, err
	}
	env := &envelope.Envelope{
		KeySerial:   priv.Serial,
		IssuedTo:    priv.IssuedTo,
		HasIssuedTo: true,
		HasCRC:      true,
		HasPadding:  false,
		GeneratedAt: isotime.Time{Time: isotime.Now(m.cfg.clock)},
		ChunkSize:   SignChunkSize,
		Chunks:      chunks,
	}
	if m.cfg.hash != "" && m.cfg.hash != hash.Default {
		env.Digest = m.cfg.hash
	}
	env.SetSize(len(digest))
	return env, nil
}

// SignArmored is Sign followed by JSON encoding and armoring.
func (m *Message) SignArmored(priv keypair.PrivateKey) (string, error) {
	env, err := m.Sign(priv)
	if err != nil {
		return "", err
	}
	return env.Armor(armor.Signature)
}

// VerifyResult reports a signature check. Reason is nil when Valid.
type VerifyResult struct {
	Valid       bool
	KeySerial   string
	IssuedTo    string
	GeneratedAt time.Time
	// Expected is the digest recovered from the signature.
	Expected string
	// Received is the digest of the content at verification time.
	Received string
	Reason   error
}

// Verify recovers the signed digest with e mod n and compares it with the
// digest of the current content in constant time. It never fails loudly:
// every problem yields Valid == false with Reason set.
func (m *Message) Verify(pub keypair.PublicKey, env *envelope.Envelope) VerifyResult {
	res := m.verify(pub, env)
	if !res.Valid {
		m.cfg.logger.Debug("signature rejected", "serial", pub.Serial, "reason", res.Reason)
	}
	return res
}

func (m *Message) verify(pub keypair.PublicKey, env *envelope.Envelope) VerifyResult {
	var res VerifyResult
	fail := func(err error) VerifyResult {
		res.Valid = false
		res.Reason = err
		return res
	}
	if !pub.Complete() {
		return fail(ErrMissingKeyMaterial)
	}
	if env == nil {
		return fail(fmt.Errorf("%w: nil envelope", envelope.ErrMalformed))
	}
	if err := env.Validate(); err != nil {
		return fail(err)
	}
	if env.KeySerial != pub.Serial {
		return fail(ErrSerialMismatch)
	}
	res.KeySerial = env.KeySerial
	res.IssuedTo = env.IssuedTo
	res.GeneratedAt = env.Generated()

	algo := env.Digest
	if algo == "" {
		algo = hash.Default
	}
	if !hash.Supported(algo) {
		return fail(fmt.Errorf("%w: digest %q", envelope.ErrMalformed, algo))
	}

	chunks := cloneInts(env.Chunks)
	if err := transform(chunks, pub.E, pub.N); err != nil {
		return fail(err)
	}
	p := paramsOf(env)
	if p.Size == 0 {
		p.Size = SignChunkSize
	}
	if err := checkChunkSize(p.Size, pub.N); err != nil {
		return fail(err)
	}
	total := env.ContentSize()
	expected, err := LoadsInts(chunks, p, total)
	if err != nil {
		return fail(err)
	}
	res.Expected = string(expected)

	if m.content == nil {
		return fail(ErrNoContent)
	}
	received, err := hash.HexDigest(algo, m.content)
	if err != nil {
		return fail(err)
	}
	res.Received = received

	if subtle.ConstantTimeCompare(expected, []byte(received)) != 1 {
		return fail(ErrDigestMismatch)
	}
	res.Valid = true
	return res
}

// VerifyArmored unarmors and parses text, then calls Verify. Decoding
// problems are reported through the result, never as a panic or error.
func (m *Message) VerifyArmored(pub keypair.PublicKey, text string) VerifyResult {
	env, err := envelope.ParseArmored(text, armor.Signature)
	if err != nil {
		m.cfg.logger.Debug("signature rejected", "serial", pub.Serial, "reason", err)
		return VerifyResult{Reason: err}
	}
	return m.Verify(pub, env)
}
