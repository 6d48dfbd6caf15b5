package securemem

import (
	"github.com/awnumar/memguard"
)

// Secret wraps a memguard locked buffer.
type Secret struct {
	buf *memguard.LockedBuffer
}

// NewRandom returns a locked buffer of n random bytes.
func NewRandom(n int) *Secret {
	return &Secret{buf: memguard.NewBufferRandom(n)}
}

// New moves b into locked memory. b is wiped.
func New(b []byte) *Secret {
	return &Secret{buf: memguard.NewBufferFromBytes(b)}
}

// Bytes exposes the locked contents. The slice is invalid after Destroy.
func (s *Secret) Bytes() []byte { return s.buf.Bytes() }

// Size is the buffer length in bytes.
func (s *Secret) Size() int { return s.buf.Size() }

// Destroy wipes and unlocks the buffer.
func (s *Secret) Destroy() { s.buf.Destroy() }
