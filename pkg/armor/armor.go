package armor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultWidth is the column at which the base64 body is wrapped.
const DefaultWidth = 72

var (
	// ErrMissingBanner is returned when the start banner, or an end banner
	// after it, cannot be found.
	ErrMissingBanner = errors.New("armor: missing banner")

	// ErrMalformedEncoding is returned when the armored body is not valid base64.
	ErrMalformedEncoding = errors.New("armor: malformed encoding")
)

// Banners is a start/end marker pair framing an armored block.
type Banners struct {
	Start string
	End   string
}

// Banner pairs used on the wire. They must match byte for byte.
var (
	PublicKey = Banners{
		Start: "--- INICIO DE CHAVE PUBLICA ---",
		End:   "--- FINAL DE CHAVE PUBLICA ---",
	}
	PrivateKey = Banners{
		Start: "--- INICIO DE CHAVE PRIVADA ---",
		End:   "--- FINAL DE CHAVE PRIVADA ---",
	}
	EncryptedMessage = Banners{
		Start: "--- INICIO DE MENSAGEM CIFRADA ---",
		End:   "--- FINAL DE MENSAGEM CIFRADA ---",
	}
	Signature = Banners{
		Start: "--- INICIO DE ASSINATURA ---",
		End:   "--- FINAL DE ASSINATURA ---",
	}
)

// Encode armors raw with the pair's banners at DefaultWidth.
func (b Banners) Encode(raw []byte) string {
	return Armor(raw, b.Start, b.End, DefaultWidth)
}

// Decode reverses Encode.
func (b Banners) Decode(text string) ([]byte, error) {
	return Unarmor(text, b.Start, b.End)
}

// Armor base64-encodes raw, wraps it at width columns and frames it as
// "start\n<body>\nend". A width <= 0 selects DefaultWidth.
func Armor(raw []byte, start, end string, width int) string {
	var buf bytes.Buffer
	w := NewWriter(&buf, start, end, width)
	// bytes.Buffer writes never fail.
	_, _ = w.Write(raw)
	_ = w.Close()
	return buf.String()
}

// Unarmor extracts and decodes the body between the first line equal to
// start and the first line equal to end that follows it.
func Unarmor(text, start, end string) ([]byte, error) {
	lines := splitLines(text)
	startIdx := -1
	for i, ln := range lines {
		if ln == start {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingBanner, start)
	}
	endIdx := -1
	for i := startIdx + 1; i < len(lines); i++ {
		if lines[i] == end {
			endIdx = i
			break
		}
	}
	if endIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingBanner, end)
	}

	var body strings.Builder
	for _, ln := range lines[startIdx+1 : endIdx] {
		body.WriteString(strings.TrimSpace(ln))
	}
	raw, err := base64.StdEncoding.DecodeString(body.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return raw, nil
}

// splitLines splits on \n, \r\n and lone \r.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
