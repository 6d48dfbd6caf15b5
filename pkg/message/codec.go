package message

import (
	"fmt"
	"math/big"

	"example.com/rsakit/pkg/crypto/crc8"
)

// DefaultPaddingByte is appended to every chunk when padding is enabled
// and no other byte is given.
const DefaultPaddingByte = 0x9F

// Params describes chunk framing. Size is the full chunk width in bytes,
// framing included. A nil PaddingByte means DefaultPaddingByte.
type Params struct {
	Size        int
	Padding     bool
	PaddingByte []byte
	CRC         bool
}

func (p Params) padByte() (byte, error) {
	switch len(p.PaddingByte) {
	case 0:
		if p.PaddingByte == nil {
			return DefaultPaddingByte, nil
		}
	case 1:
		return p.PaddingByte[0], nil
	}
	return 0, fmt.Errorf("%w: got %d bytes", ErrPaddingByte, len(p.PaddingByte))
}

func (p Params) overhead() int {
	n := 0
	if p.CRC {
		n++
	}
	if p.Padding {
		n++
	}
	return n
}

// Capacity returns the payload bytes carried by each chunk.
func (p Params) Capacity() (int, error) {
	if p.Size < 2 {
		return 0, fmt.Errorf("%w: size %d", ErrChunkSize, p.Size)
	}
	if p.Padding {
		if _, err := p.padByte(); err != nil {
			return 0, err
		}
	}
	c := p.Size - p.overhead()
	if c < 1 {
		return 0, fmt.Errorf("%w: size %d leaves %d payload bytes", ErrChunkSize, p.Size, c)
	}
	return c, nil
}

// Dumps splits content into chunks of p.Size bytes: a CRC-8 byte over the
// rest of the chunk (if enabled), the payload slice, then the padding byte
// (if enabled). The last chunk may be shorter. Without framing the chunks
// alias content.
func Dumps(content []byte, p Params) ([][]byte, error) {
	capacity, err := p.Capacity()
	if err != nil {
		return nil, err
	}
	var pad byte
	if p.Padding {
		pad, _ = p.padByte()
	}
	chunks := make([][]byte, 0, chunkCount(len(content), capacity))
	for i := 0; i < len(content); i += capacity {
		end := min(i+capacity, len(content))
		slice := content[i:end:end]
		if p.overhead() == 0 {
			chunks = append(chunks, slice)
			continue
		}
		chunk := make([]byte, 0, len(slice)+p.overhead())
		if p.CRC {
			chunk = append(chunk, 0)
		}
		chunk = append(chunk, slice...)
		if p.Padding {
			chunk = append(chunk, pad)
		}
		if p.CRC {
			chunk[0] = crc8.Checksum(chunk[1:])
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// DumpsInts is Dumps with every chunk read as a big-endian unsigned integer.
func DumpsInts(content []byte, p Params) ([]*big.Int, error) {
	chunks, err := Dumps(content, p)
	if err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(chunks))
	for i, c := range chunks {
		out[i] = new(big.Int).SetBytes(c)
	}
	return out, nil
}

// Loads checks and strips the framing of every chunk and concatenates the
// payloads. p.Size is not used.
func Loads(chunks [][]byte, p Params) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	var pad byte
	if p.Padding {
		var err error
		if pad, err = p.padByte(); err != nil {
			return nil, err
		}
	}
	var out []byte
	for i, data := range chunks {
		start, end := 0, len(data)
		if p.Padding {
			if len(data) == 0 || data[len(data)-1] != pad {
				return nil, fmt.Errorf("%w: chunk %d", ErrPaddingMismatch, i)
			}
			end--
		}
		if p.CRC {
			if len(data) == 0 || data[0] != crc8.Checksum(data[1:]) {
				return nil, fmt.Errorf("%w: chunk %d", ErrCRCMismatch, i)
			}
			start++
		}
		if end < start {
			return nil, fmt.Errorf("%w: chunk %d", ErrShortChunk, i)
		}
		out = append(out, data[start:end]...)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// LoadsInts converts integer chunks back to bytes and calls Loads. When
// total (the reassembled length) is non-negative, each chunk is widened
// to the exact length Dumps produced for it, so leading zero bytes such
// as a zero CRC survive; the chunk count must then match. A negative
// total uses the minimal big-endian form of each integer. p.Size bounds
// the allocation per chunk and must come from a trusted source or be
// checked against the modulus first.
func LoadsInts(chunks []*big.Int, p Params, total int) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	raw := make([][]byte, len(chunks))
	if total < 0 {
		for i, c := range chunks {
			raw[i] = c.Bytes()
		}
		return Loads(raw, p)
	}

	widths, err := chunkWidths(p, total, len(chunks))
	if err != nil {
		return nil, err
	}
	for i, c := range chunks {
		if c.Sign() < 0 || (c.BitLen()+7)/8 > widths[i] {
			return nil, fmt.Errorf("%w: chunk %d", ErrChunkOverflow, i)
		}
		raw[i] = c.FillBytes(make([]byte, widths[i]))
	}
	return Loads(raw, p)
}

// chunkCount is the number of chunks Dumps emits for total payload bytes.
func chunkCount(total, capacity int) int {
	if total <= 0 {
		return 0
	}
	return (total-1)/capacity + 1
}

// chunkWidths returns the byte length of each of the count chunks Dumps
// emits for a payload of total bytes. A total that does not split into
// exactly count chunks is ErrChunkCount.
func chunkWidths(p Params, total, count int) ([]int, error) {
	capacity, err := p.Capacity()
	if err != nil {
		return nil, err
	}
	if want := chunkCount(total, capacity); want != count {
		return nil, fmt.Errorf("%w: got %d chunks, want %d", ErrChunkCount, count, want)
	}
	widths := make([]int, count)
	for i := range widths {
		n := capacity
		if i == count-1 {
			n = total - i*capacity
		}
		widths[i] = n + p.overhead()
	}
	return widths, nil
}
