// Package compress provides the optional content codecs applied before a
// message is chunked for encryption.
package compress

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	dbz2 "github.com/dsnet/compress/bzip2"
)

// Codec names as recorded in an envelope.
const (
	None  = "none"
	Zip   = "zip"
	Zlib  = "zlib"
	Bzip2 = "bzip2"
)

// MaxDecompressedSize caps the output of Decompress.
const MaxDecompressedSize = 64 << 20

// ErrTooLarge is returned when decompressed data exceeds MaxDecompressedSize.
var ErrTooLarge = errors.New("compress: decompressed data too large")

type Codec interface {
	Name() string
	Compress([]byte) ([]byte, error)
	Decompress([]byte) ([]byte, error)
}

// Get returns the codec for name. The empty name means None.
func Get(name string) (Codec, error) {
	switch name {
	case "", None:
		return noop{}, nil
	case Zip:
		return deflateCodec{}, nil
	case Zlib:
		return zlibCodec{}, nil
	case Bzip2:
		return bzip2Codec{}, nil
	default:
		return nil, fmt.Errorf("compress: unknown codec %q", name)
	}
}

type noop struct{}

func (noop) Name() string                        { return None }
func (noop) Compress(b []byte) ([]byte, error)   { return b, nil }
func (noop) Decompress(b []byte) ([]byte, error) { return b, nil }

type deflateCodec struct{}

func (deflateCodec) Name() string { return Zip }

func (deflateCodec) Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	return finish(&buf, w, b)
}

func (deflateCodec) Decompress(b []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(b))
	defer r.Close()
	return readLimited(r, MaxDecompressedSize)
}

type zlibCodec struct{}

func (zlibCodec) Name() string { return Zlib }

func (zlibCodec) Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	return finish(&buf, w, b)
}

func (zlibCodec) Decompress(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readLimited(r, MaxDecompressedSize)
}

type bzip2Codec struct{}

func (bzip2Codec) Name() string { return Bzip2 }

func (bzip2Codec) Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := dbz2.NewWriter(&buf, &dbz2.WriterConfig{Level: dbz2.BestCompression})
	if err != nil {
		return nil, err
	}
	return finish(&buf, w, b)
}

func (bzip2Codec) Decompress(b []byte) ([]byte, error) {
	r, err := dbz2.NewReader(bytes.NewReader(b), &dbz2.ReaderConfig{})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readLimited(r, MaxDecompressedSize)
}

// readLimited reads r to the end, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return b, nil
}

func finish(buf *bytes.Buffer, w io.WriteCloser, b []byte) ([]byte, error) {
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
