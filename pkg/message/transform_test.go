package message

import (
	"bytes"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"example.com/rsakit/pkg/compress"
	"example.com/rsakit/pkg/envelope"
	"example.com/rsakit/pkg/keypair"
	"example.com/rsakit/pkg/util/random"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newPair(t *testing.T, seed string, bits int, opts ...keypair.GenerateOption) *keypair.KeyPair {
	t.Helper()
	kp := keypair.New(
		keypair.WithRand(random.Deterministic([]byte(seed))),
		keypair.WithClock(fixedClock),
	)
	if err := kp.Generate(bits, opts...); err != nil {
		t.Fatalf("Generate(%d): %v", bits, err)
	}
	return kp
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	kp := newPair(t, "round trip", 64)
	capacity := DefaultChunkSize(64) - 2

	noFraming := EncryptOptions{}
	crcOnly := EncryptOptions{CRC: true}
	zeroPad := EncryptOptions{Padding: true, PaddingByte: []byte{0x00}, CRC: true}
	optionSets := map[string]EncryptOptions{
		"default":    DefaultEncryptOptions(),
		"no framing": noFraming,
		"crc only":   crcOnly,
		"zero pad":   zeroPad,
	}
	lengths := []int{0, 1, capacity - 1, capacity, capacity + 1, 2 * capacity, 2*capacity + 1, 200}

	for name, o := range optionSets {
		for _, n := range lengths {
			content := sampleContent(n)
			m := New(content, WithClock(fixedClock))
			env, err := m.Encrypt(kp.Public(), o)
			if err != nil {
				t.Fatalf("%s/%d: Encrypt: %v", name, n, err)
			}
			if env.KeySerial != kp.Serial() {
				t.Fatalf("%s/%d: key_serial %q want %q", name, n, env.KeySerial, kp.Serial())
			}
			if !env.Generated().Equal(fixedNow) {
				t.Fatalf("%s/%d: generated_at %v", name, n, env.Generated())
			}

			out := New(nil)
			if err := out.Decrypt(kp.Private(), env); err != nil {
				t.Fatalf("%s/%d: Decrypt: %v", name, n, err)
			}
			if !bytes.Equal(out.Content(), content) || !out.HasContent() {
				t.Fatalf("%s/%d: got %x want %x", name, n, out.Content(), content)
			}
		}
	}
}

func TestEncryptChunkCount(t *testing.T) {
	kp := newPair(t, "chunk count", 64)
	capacity := DefaultChunkSize(64) - 2
	env, err := NewString(string(sampleContent(2*capacity+1))).Encrypt(kp.Public(), DefaultEncryptOptions())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(env.Chunks) != 3 {
		t.Fatalf("got %d chunks want 3", len(env.Chunks))
	}
	if !env.HasCRC || !env.HasPadding {
		t.Fatalf("framing flags not recorded: %+v", env)
	}
	if b, ok := env.PaddingByte(); !ok || b != DefaultPaddingByte {
		t.Fatalf("padding byte = %#x, %v", b, ok)
	}

	empty, err := New([]byte{}).Encrypt(kp.Public(), DefaultEncryptOptions())
	if err != nil {
		t.Fatalf("Encrypt(empty): %v", err)
	}
	if len(empty.Chunks) != 0 || empty.ContentSize() != 0 {
		t.Fatalf("empty content gave %d chunks, size %d", len(empty.Chunks), empty.ContentSize())
	}
}

func TestEncryptDecryptCompressed(t *testing.T) {
	kp := newPair(t, "compressed", 64)
	content := bytes.Repeat([]byte("ola, mundo! "), 50)
	for _, codec := range []string{compress.Zip, compress.Zlib, compress.Bzip2} {
		o := DefaultEncryptOptions()
		o.Compression = codec
		env, err := New(content).Encrypt(kp.Public(), o)
		if err != nil {
			t.Fatalf("%s: Encrypt: %v", codec, err)
		}
		if env.Compression != codec {
			t.Fatalf("%s: compression recorded as %q", codec, env.Compression)
		}
		out := New(nil)
		if err := out.Decrypt(kp.Private(), env); err != nil {
			t.Fatalf("%s: Decrypt: %v", codec, err)
		}
		if !bytes.Equal(out.Content(), content) {
			t.Fatalf("%s: content mismatch", codec)
		}
	}

	o := DefaultEncryptOptions()
	o.Compression = "lzma"
	if _, err := New(content).Encrypt(kp.Public(), o); err == nil {
		t.Fatalf("unknown codec accepted")
	}
}

func TestEncryptDecryptArmored(t *testing.T) {
	kp := newPair(t, "armored", 64)
	pubText, err := kp.PublicArmored()
	if err != nil {
		t.Fatalf("PublicArmored: %v", err)
	}
	pub, err := keypair.ParsePublicArmored(pubText)
	if err != nil {
		t.Fatalf("ParsePublicArmored: %v", err)
	}
	if !pub.Equal(kp.Public()) {
		t.Fatalf("parsed public key differs")
	}
	text, err := NewString("Ola, mundo!").EncryptArmored(pub, DefaultEncryptOptions())
	if err != nil {
		t.Fatalf("EncryptArmored: %v", err)
	}
	out := New(nil)
	if err := out.DecryptArmored(kp.Private(), text); err != nil {
		t.Fatalf("DecryptArmored: %v", err)
	}
	if out.String() != "Ola, mundo!" {
		t.Fatalf("got %q", out.String())
	}

	// a restored private key decrypts as well
	privText, err := kp.PrivateArmored()
	if err != nil {
		t.Fatalf("PrivateArmored: %v", err)
	}
	priv, err := keypair.ParsePrivateArmored(privText)
	if err != nil {
		t.Fatalf("ParsePrivateArmored: %v", err)
	}
	out = New(nil)
	if err := out.DecryptArmored(priv, text); err != nil || out.String() != "Ola, mundo!" {
		t.Fatalf("decrypt with parsed key: %q, %v", out.String(), err)
	}

	if err := out.DecryptArmored(kp.Private(), "not armored"); err == nil {
		t.Fatalf("garbage accepted")
	}
}

func TestDecryptSerialMismatch(t *testing.T) {
	alice := newPair(t, "alice", 64)
	bob := newPair(t, "bob", 64)
	env, err := NewString("for alice").Encrypt(alice.Public(), DefaultEncryptOptions())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	m := NewString("untouched")
	err = m.Decrypt(bob.Private(), env)
	if !errors.Is(err, ErrSerialMismatch) || !IsIntegrityError(err) {
		t.Fatalf("got %v want ErrSerialMismatch", err)
	}
	if m.String() != "untouched" {
		t.Fatalf("content changed to %q", m.String())
	}
}

func TestDecryptTamperedChunk(t *testing.T) {
	kp := newPair(t, "tamper", 64)
	env, err := NewString("integrity matters here").Encrypt(kp.Public(), DefaultEncryptOptions())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	env.Chunks[0].Add(env.Chunks[0], big.NewInt(1))
	m := NewString("untouched")
	if err := m.Decrypt(kp.Private(), env); err == nil {
		t.Fatalf("tampered chunk accepted")
	}
	if m.String() != "untouched" {
		t.Fatalf("content changed to %q", m.String())
	}
}

func TestDecryptRejectsHostileFields(t *testing.T) {
	kp := newPair(t, "hostile", 64)
	content := "hostile envelope fields"
	capacity := DefaultChunkSize(64) - 2

	cases := []struct {
		name   string
		mutate func(*envelope.Envelope)
		want   error
	}{
		{"huge size", func(e *envelope.Envelope) { e.SetSize(math.MaxInt) }, ErrChunkCount},
		{"huge size narrow chunks", func(e *envelope.Envelope) { e.SetSize(math.MaxInt / 2); e.ChunkSize = 3 }, ErrChunkCount},
		{"zero size", func(e *envelope.Envelope) { e.SetSize(0) }, ErrChunkCount},
		{"size one chunk short", func(e *envelope.Envelope) { e.SetSize(capacity) }, ErrChunkCount},
		{"negative size", func(e *envelope.Envelope) { e.SetSize(-1) }, envelope.ErrMalformed},
		{"huge chunk size", func(e *envelope.Envelope) { e.ChunkSize = math.MaxInt }, envelope.ErrMalformed},
		{"chunk size beyond modulus", func(e *envelope.Envelope) { e.ChunkSize = 17 }, envelope.ErrMalformed},
		{"negative chunk size", func(e *envelope.Envelope) { e.ChunkSize = -4 }, envelope.ErrMalformed},
		{"no payload room", func(e *envelope.Envelope) { e.ChunkSize = 2 }, ErrChunkSize},
		{"padding zero", func(e *envelope.Envelope) { e.SetPadding(0x00) }, ErrPaddingMismatch},
		{"padding max", func(e *envelope.Envelope) { e.SetPadding(0xFF) }, ErrPaddingMismatch},
		{"padding out of range", func(e *envelope.Envelope) { v := 256; e.Padding = &v }, envelope.ErrMalformed},
		{"chunks dropped", func(e *envelope.Envelope) { e.Chunks = nil }, ErrNoChunks},
		{"unknown compression", func(e *envelope.Envelope) { e.Compression = "lzma" }, envelope.ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := NewString(content).Encrypt(kp.Public(), DefaultEncryptOptions())
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			tc.mutate(env)
			m := NewString("untouched")
			if err := m.Decrypt(kp.Private(), env); !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
			if m.String() != "untouched" {
				t.Fatalf("content changed to %q", m.String())
			}
		})
	}

	// a payload that is not bzip2 data under a bzip2 label
	env, err := NewString(content).Encrypt(kp.Public(), DefaultEncryptOptions())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	env.Compression = compress.Bzip2
	if err := New(nil).Decrypt(kp.Private(), env); err == nil {
		t.Fatalf("mislabelled compression accepted")
	}
}

func TestDecryptDefaultsPaddingByte(t *testing.T) {
	kp := newPair(t, "padding", 64)
	env, err := NewString("legacy padding").Encrypt(kp.Public(), DefaultEncryptOptions())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	env.Padding = nil
	out := New(nil)
	if err := out.Decrypt(kp.Private(), env); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if out.String() != "legacy padding" {
		t.Fatalf("got %q", out.String())
	}
}

func TestEncryptErrors(t *testing.T) {
	small := newPair(t, "small", 16)
	o := DefaultEncryptOptions()
	o.ChunkSize = 8
	_, err := New(bytes.Repeat([]byte{0xFF}, 20)).Encrypt(small.Public(), o)
	if !errors.Is(err, ErrChunkTooLarge) {
		t.Fatalf("got %v want ErrChunkTooLarge", err)
	}

	if _, err := NewString("x").Encrypt(keypair.PublicKey{}, o); !errors.Is(err, ErrMissingKeyMaterial) {
		t.Fatalf("got %v want ErrMissingKeyMaterial", err)
	}
	if _, err := New(nil).Encrypt(small.Public(), DefaultEncryptOptions()); !errors.Is(err, ErrNoContent) {
		t.Fatalf("got %v want ErrNoContent", err)
	}
	if err := New(nil).Decrypt(keypair.PrivateKey{}, &envelope.Envelope{}); !errors.Is(err, ErrMissingKeyMaterial) {
		t.Fatalf("got %v want ErrMissingKeyMaterial", err)
	}
	if err := New(nil).Decrypt(small.Private(), nil); !errors.Is(err, envelope.ErrMalformed) {
		t.Fatalf("got %v want ErrMalformed", err)
	}
}

func TestDefaultChunkSize(t *testing.T) {
	cases := map[int]int{0: 0, 5: 1, 8: 1, 16: 3, 64: 15, 512: 127, 1024: 255}
	for size, want := range cases {
		if got := DefaultChunkSize(size); got != want {
			t.Fatalf("DefaultChunkSize(%d) = %d want %d", size, got, want)
		}
	}
}
