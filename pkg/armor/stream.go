package armor

import (
	"encoding/base64"
	"errors"
	"io"
)

// Writer streams an armored block: the start banner, base64 body lines
// and, on Close, the end banner. No newline follows the end banner.
type Writer struct {
	w         io.Writer
	end       string
	enc       io.WriteCloser
	breaker   *lineBreaker
	err       error
	wroteData bool
	closed    bool
}

// NewWriter writes the start banner to w and returns a Writer for the body.
// A width <= 0 selects DefaultWidth. Write errors are reported by Write and Close.
func NewWriter(w io.Writer, start, end string, width int) *Writer {
	if width <= 0 {
		width = DefaultWidth
	}
	aw := &Writer{w: w, end: end}
	_, aw.err = io.WriteString(w, start+"\n")
	aw.breaker = &lineBreaker{w: w, width: width}
	aw.enc = base64.NewEncoder(base64.StdEncoding, aw.breaker)
	return aw
}

// Write streams data into the base64 encoder.
func (aw *Writer) Write(p []byte) (int, error) {
	if aw.closed {
		return 0, errors.New("armor: write on closed writer")
	}
	if aw.err != nil {
		return 0, aw.err
	}
	if len(p) > 0 {
		aw.wroteData = true
	}
	return aw.enc.Write(p)
}

// Close flushes the encoder and writes the end banner.
func (aw *Writer) Close() error {
	if aw.closed {
		return nil
	}
	aw.closed = true
	if aw.err != nil {
		return aw.err
	}
	if err := aw.enc.Close(); err != nil {
		return err
	}
	if err := aw.breaker.Close(); err != nil {
		return err
	}
	if !aw.wroteData {
		// empty body still occupies one line
		if _, err := io.WriteString(aw.w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(aw.w, aw.end)
	return err
}

type lineBreaker struct {
	w     io.Writer
	width int
	col   int
}

func (lb *lineBreaker) Write(p []byte) (int, error) {
	for i, b := range p {
		if lb.col == lb.width {
			if _, err := lb.w.Write([]byte{'\n'}); err != nil {
				return i, err
			}
			lb.col = 0
		}
		if _, err := lb.w.Write([]byte{b}); err != nil {
			return i, err
		}
		lb.col++
	}
	return len(p), nil
}

func (lb *lineBreaker) Close() error {
	if lb.col > 0 {
		if _, err := lb.w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}
