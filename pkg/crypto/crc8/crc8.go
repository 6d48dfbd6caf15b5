package crc8

// Poly is the CRC-8 generator polynomial (x^8 + x^2 + x + 1).
const Poly = 0x07

// Checksum computes CRC-8 (poly 0x07, init 0x00, no reflection, no final xor).
func Checksum(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = Update(crc, b)
	}
	return crc
}

// Update folds one byte into a running checksum.
func Update(crc, b byte) byte {
	crc ^= b
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = crc<<1 ^ Poly
		} else {
			crc <<= 1
		}
	}
	return crc
}
