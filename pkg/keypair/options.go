package keypair

import (
	"io"
	"log/slog"
	"math/big"
	"time"

	"example.com/rsakit/pkg/util/random"
)

const (
	// MinBits is the smallest accepted prime size.
	MinBits = 5

	// DefaultMaxRetries bounds the number of q redraws while searching
	// for a public exponent.
	DefaultMaxRetries = 1000
)

type config struct {
	rand       io.Reader
	clock      func() time.Time
	logger     *slog.Logger
	maxRetries int
}

func defaultConfig() config {
	return config{
		rand:       random.Reader(),
		clock:      time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRetries: DefaultMaxRetries,
	}
}

// Option configures a KeyPair.
type Option func(*config)

// WithRand sets the random source used for primes and serials.
func WithRand(r io.Reader) Option {
	return func(c *config) {
		if r != nil {
			c.rand = r
		}
	}
}

// WithClock sets the clock used to stamp issued_at.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger. Key material is never logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxRetries bounds the q redraws performed by Generate.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

type generateConfig struct {
	p, q     *big.Int
	issuedTo string
	issuedAt time.Time
}

// GenerateOption configures a single Generate call.
type GenerateOption func(*generateConfig)

// WithPrimes supplies candidate factors. A value that is not prime is
// replaced by a freshly drawn one.
func WithPrimes(p, q *big.Int) GenerateOption {
	return func(g *generateConfig) {
		g.p, g.q = p, q
	}
}

// WithIssuedTo labels the pair's owner.
func WithIssuedTo(to string) GenerateOption {
	return func(g *generateConfig) { g.issuedTo = to }
}

// WithIssuedAt overrides the issue time. It is stored in UTC at second precision.
func WithIssuedAt(at time.Time) GenerateOption {
	return func(g *generateConfig) { g.issuedAt = at }
}
