package message

import (
	"io"
	"log/slog"
	"math/big"
	"time"

	"example.com/rsakit/pkg/crypto/hash"
)

type config struct {
	clock  func() time.Time
	logger *slog.Logger
	hash   string
}

func defaultConfig() config {
	return config{
		clock:  time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		hash:   hash.Default,
	}
}

// Option configures a Message.
type Option func(*config)

// WithClock sets the clock used to stamp envelopes.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used to report rejected envelopes.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHash selects the digest used by Sign and Digest (see package hash).
func WithHash(name string) Option {
	return func(c *config) { c.hash = name }
}

// Message owns a byte buffer. Absent content (nil) differs from empty content.
type Message struct {
	content []byte
	cfg     config
}

// New returns a Message holding a copy of content; nil leaves it absent.
func New(content []byte, opts ...Option) *Message {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	m := &Message{cfg: cfg}
	m.SetContent(content)
	return m
}

// NewString returns a Message holding the UTF-8 bytes of s.
func NewString(s string, opts ...Option) *Message {
	return New([]byte(s), opts...)
}

// Content returns a copy of the buffer, nil when absent.
func (m *Message) Content() []byte {
	if m.content == nil {
		return nil
	}
	return append([]byte{}, m.content...)
}

// HasContent reports whether content is present (it may be empty).
func (m *Message) HasContent() bool { return m.content != nil }

// Size is the content length in bytes.
func (m *Message) Size() int { return len(m.content) }

// SetContent replaces the buffer with a copy of b; nil makes it absent.
func (m *Message) SetContent(b []byte) {
	if b == nil {
		m.content = nil
		return
	}
	m.content = append([]byte{}, b...)
}

// SetString replaces the buffer with the bytes of s.
func (m *Message) SetString(s string) { m.content = append([]byte{}, s...) }

// Append adds b to the end of the buffer.
func (m *Message) Append(b []byte) {
	if m.content == nil {
		m.content = []byte{}
	}
	m.content = append(m.content, b...)
}

// AppendInt appends the minimal big-endian bytes of x.
func (m *Message) AppendInt(x *big.Int) { m.Append(x.Bytes()) }

// Int reads the content as a big-endian unsigned integer.
func (m *Message) Int() *big.Int { return new(big.Int).SetBytes(m.content) }

func (m *Message) String() string { return string(m.content) }

// Digest returns the hex digest of the content.
func (m *Message) Digest() (string, error) {
	if m.content == nil {
		return "", ErrNoContent
	}
	return hash.HexDigest(m.cfg.hash, m.content)
}

// Dumps chunks the content, see the package-level Dumps.
func (m *Message) Dumps(p Params) ([][]byte, error) {
	if m.content == nil {
		return nil, ErrNoContent
	}
	return Dumps(m.content, p)
}

// DumpsInts chunks the content into integers.
func (m *Message) DumpsInts(p Params) ([]*big.Int, error) {
	if m.content == nil {
		return nil, ErrNoContent
	}
	return DumpsInts(m.content, p)
}

// Loads reassembles chunks and, on success only, replaces the content.
func (m *Message) Loads(chunks [][]byte, p Params) error {
	out, err := Loads(chunks, p)
	if err != nil {
		return err
	}
	m.content = out
	return nil
}

// LoadsInts is Loads for integer chunks, see the package-level LoadsInts.
func (m *Message) LoadsInts(chunks []*big.Int, p Params, total int) error {
	out, err := LoadsInts(chunks, p, total)
	if err != nil {
		return err
	}
	m.content = out
	return nil
}
