// Package message splits content into framed chunks and applies the RSA
// transform to them.
//
// # Chunk framing
//
// A chunk is at most Params.Size bytes:
//
//	[crc8] payload... [padding]
//
// The CRC-8 byte covers the payload and the padding byte. When chunks are
// carried as integers a zero CRC byte would vanish, so envelopes record the
// payload length and chunk size and LoadsInts restores every chunk to its
// exact width.
//
// # Transform
//
// Encrypt raises each chunk to e mod n and Decrypt to d mod n. Sign digests
// the content (SHA-512 hex by default), chunks the digest text with CRC and
// raises the chunks to d mod n; Verify reverses this and compares digests in
// constant time. Envelopes are bound to a key pair by its serial.
//
// This is a toy RSA: no OAEP or PKCS#1 padding and no constant-time
// arithmetic. Do not use it to protect real data.
package message
