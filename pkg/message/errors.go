package message

import "errors"

var (
	// ErrChunkSize is returned when the chunk size leaves no room for payload.
	ErrChunkSize = errors.New("message: chunk size too small")

	// ErrPaddingByte is returned when the padding value is not exactly one byte.
	ErrPaddingByte = errors.New("message: padding must be a single byte")

	// ErrNoChunks is returned when there is nothing to reassemble.
	ErrNoChunks = errors.New("message: no chunks")

	// ErrShortChunk is returned when a chunk is too short for its framing.
	ErrShortChunk = errors.New("message: chunk shorter than its framing")

	// ErrChunkCount is returned when the number of chunks disagrees with
	// the recorded content size.
	ErrChunkCount = errors.New("message: chunk count mismatch")

	// ErrChunkOverflow is returned when an integer chunk does not fit its
	// expected byte width.
	ErrChunkOverflow = errors.New("message: chunk value exceeds its width")

	// ErrPaddingMismatch is returned when a chunk does not end with the padding byte.
	ErrPaddingMismatch = errors.New("message: padding mismatch")

	// ErrCRCMismatch is returned when a chunk's checksum does not match its body.
	ErrCRCMismatch = errors.New("message: crc mismatch")

	// ErrNoContent is returned when an operation needs content and the message has none.
	ErrNoContent = errors.New("message: no content")

	// ErrMissingKeyMaterial is returned when a key lacks its modulus or exponent.
	ErrMissingKeyMaterial = errors.New("message: key lacks modulus or exponent")

	// ErrSerialMismatch is returned when an envelope was made for another key pair.
	ErrSerialMismatch = errors.New("message: key serial mismatch")

	// ErrChunkTooLarge is returned when a chunk value is not below the modulus,
	// which would make the RSA transform lossy.
	ErrChunkTooLarge = errors.New("message: chunk value not below modulus")

	// ErrDigestMismatch is reported by Verify when the digests differ.
	ErrDigestMismatch = errors.New("message: digest mismatch")
)
