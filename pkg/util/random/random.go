package random

import (
	"crypto/rand"
	"io"

	"github.com/cloudflare/circl/xof"
)

// Reader returns the process-wide secure random source.
func Reader() io.Reader { return rand.Reader }

// Deterministic returns an endless SHAKE-256 stream keyed by seed.
// Equal seeds yield equal streams; use it only where reproducibility
// matters more than secrecy (tests, fixtures).
func Deterministic(seed []byte) io.Reader {
	x := xof.SHAKE256.New()
	_, _ = x.Write([]byte("rsakit/random/v1"))
	_, _ = x.Write(seed)
	return x
}
