package message

import (
	"errors"
	"math"
	"strings"
	"testing"

	"example.com/rsakit/pkg/armor"
	"example.com/rsakit/pkg/envelope"
	"example.com/rsakit/pkg/keypair"
)

func TestSignVerify(t *testing.T) {
	kp := newPair(t, "signer", 64, keypair.WithIssuedTo("alice"))
	m := NewString("Ola, mundo!", WithClock(fixedClock))
	env, err := m.Sign(kp.Private())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if env.HasPadding || !env.HasCRC || env.ChunkSize != SignChunkSize {
		t.Fatalf("unexpected signature framing: %+v", env)
	}
	if env.IssuedTo != "alice" || !env.HasIssuedTo || env.Digest != "" {
		t.Fatalf("issued_to %q digest %q", env.IssuedTo, env.Digest)
	}

	res := NewString("Ola, mundo!").Verify(kp.Public(), env)
	if !res.Valid {
		t.Fatalf("Verify: %v", res.Reason)
	}
	if res.KeySerial != kp.Serial() || res.IssuedTo != "alice" || !res.GeneratedAt.Equal(fixedNow) {
		t.Fatalf("result metadata: %+v", res)
	}
	want, _ := m.Digest()
	if res.Expected != want || res.Received != want {
		t.Fatalf("digests: expected %q received %q want %q", res.Expected, res.Received, want)
	}
}

func TestVerifyRejects(t *testing.T) {
	alice := newPair(t, "alice", 64)
	bob := newPair(t, "bob", 64)
	env, err := NewString("Ola, mundo!").Sign(alice.Private())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	res := NewString("Ola, mundo?").Verify(alice.Public(), env)
	if res.Valid || !errors.Is(res.Reason, ErrDigestMismatch) {
		t.Fatalf("changed content: %+v", res)
	}
	if res.Expected == res.Received || res.Received == "" {
		t.Fatalf("digests not reported: %+v", res)
	}

	res = NewString("Ola, mundo!").Verify(bob.Public(), env)
	if res.Valid || !errors.Is(res.Reason, ErrSerialMismatch) {
		t.Fatalf("other key pair: %+v", res)
	}

	// bob's modulus under alice's serial
	forged := bob.Public()
	forged.Serial = alice.Serial()
	if res = NewString("Ola, mundo!").Verify(forged, env); res.Valid {
		t.Fatalf("foreign modulus accepted")
	}

	tampered := *env
	tampered.KeySerial = bob.Serial()
	if res = NewString("Ola, mundo!").Verify(alice.Public(), &tampered); res.Valid {
		t.Fatalf("tampered key_serial accepted")
	}

	if res = New(nil).Verify(alice.Public(), env); res.Valid || !errors.Is(res.Reason, ErrNoContent) {
		t.Fatalf("absent content: %+v", res)
	}
	if res = NewString("x").Verify(keypair.PublicKey{}, env); res.Valid || !errors.Is(res.Reason, ErrMissingKeyMaterial) {
		t.Fatalf("empty key: %+v", res)
	}
	if res = NewString("x").Verify(alice.Public(), nil); res.Valid || res.Reason == nil {
		t.Fatalf("nil envelope: %+v", res)
	}

	unknown := *env
	unknown.Digest = "md4"
	if res = NewString("Ola, mundo!").Verify(alice.Public(), &unknown); res.Valid {
		t.Fatalf("unknown digest accepted")
	}
}

func TestVerifyRejectsHostileFields(t *testing.T) {
	kp := newPair(t, "hostile signer", 64)

	cases := []struct {
		name   string
		mutate func(*envelope.Envelope)
		want   error
	}{
		{"huge size", func(e *envelope.Envelope) { e.SetSize(math.MaxInt) }, ErrChunkCount},
		{"huge size narrow chunks", func(e *envelope.Envelope) { e.ChunkSize = 2; e.SetSize(math.MaxInt / 2) }, ErrChunkCount},
		{"zero size", func(e *envelope.Envelope) { e.SetSize(0) }, ErrChunkCount},
		{"size one chunk short", func(e *envelope.Envelope) { e.SetSize(3 * (len(e.Chunks) - 1)) }, ErrChunkCount},
		{"huge chunk size", func(e *envelope.Envelope) { e.ChunkSize = math.MaxInt }, envelope.ErrMalformed},
		{"chunk size beyond modulus", func(e *envelope.Envelope) { e.ChunkSize = 17 }, envelope.ErrMalformed},
		{"padding claimed", func(e *envelope.Envelope) { e.ChunkSize = 5; e.SetPadding(0x9F) }, ErrPaddingMismatch},
		{"unknown digest", func(e *envelope.Envelope) { e.Digest = "sha1" }, envelope.ErrMalformed},
		{"chunks dropped", func(e *envelope.Envelope) { e.Chunks = nil }, ErrNoChunks},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := NewString("hello").Sign(kp.Private())
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			tc.mutate(env)
			if res := NewString("hello").Verify(kp.Public(), env); res.Valid || !errors.Is(res.Reason, tc.want) {
				t.Fatalf("Verify: valid %v reason %v want %v", res.Valid, res.Reason, tc.want)
			}

			text, err := env.Armor(armor.Signature)
			if err != nil {
				t.Fatalf("Armor: %v", err)
			}
			if res := NewString("hello").VerifyArmored(kp.Public(), text); res.Valid || !errors.Is(res.Reason, tc.want) {
				t.Fatalf("VerifyArmored: valid %v reason %v want %v", res.Valid, res.Reason, tc.want)
			}
		})
	}

	env, _ := NewString("hello").Sign(kp.Private())
	v := -1
	env.Padding = &v
	if res := NewString("hello").Verify(kp.Public(), env); res.Valid || !errors.Is(res.Reason, envelope.ErrMalformed) {
		t.Fatalf("negative padding: %+v", res)
	}
}

func TestSignVerifyArmored(t *testing.T) {
	kp := newPair(t, "armored signer", 64)
	text, err := NewString("assinado").SignArmored(kp.Private())
	if err != nil {
		t.Fatalf("SignArmored: %v", err)
	}
	if res := NewString("assinado").VerifyArmored(kp.Public(), text); !res.Valid {
		t.Fatalf("VerifyArmored: %v", res.Reason)
	}
	raw, err := armor.Signature.Decode(text)
	if err != nil || !strings.Contains(string(raw), `"issued_to":null`) {
		t.Fatalf("unlabelled signer: %s, %v", raw, err)
	}
	res := NewString("assinado").VerifyArmored(kp.Public(), "no banners here")
	if res.Valid || !errors.Is(res.Reason, armor.ErrMissingBanner) {
		t.Fatalf("garbage: %+v", res)
	}
}

func TestSignWithSHA3(t *testing.T) {
	kp := newPair(t, "sha3", 64)
	env, err := NewString("keccak", WithHash("sha3-512")).Sign(kp.Private())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if env.Digest != "sha3-512" {
		t.Fatalf("digest recorded as %q", env.Digest)
	}
	if res := NewString("keccak").Verify(kp.Public(), env); !res.Valid {
		t.Fatalf("Verify: %v", res.Reason)
	}
}

func TestSignSmallKey(t *testing.T) {
	kp := newPair(t, "tiny", 8)
	if _, err := NewString("x").Sign(kp.Private()); !errors.Is(err, ErrChunkTooLarge) {
		t.Fatalf("got %v want ErrChunkTooLarge", err)
	}
	if _, err := NewString("x").Sign(keypair.PrivateKey{}); !errors.Is(err, ErrMissingKeyMaterial) {
		t.Fatalf("got %v want ErrMissingKeyMaterial", err)
	}
}
