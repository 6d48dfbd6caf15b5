// Package keymath holds the number-theoretic helpers behind key generation:
// probabilistic primes, public exponent selection and modular inverses.
package keymath

import (
	"errors"
	"fmt"
	"io"
	"math/big"
)

// MillerRabinRounds is the number of Miller-Rabin rounds used by IsPrime.
const MillerRabinRounds = 20

// CommonExponents are tried, in order, before scanning.
var CommonExponents = []int64{65537, 17, 3}

// ScanStart is the first candidate of the exponent scan.
const ScanStart = 65539

var (
	// ErrPrimeBits is returned by GeneratePrime for sizes below two bits.
	ErrPrimeBits = errors.New("keymath: prime bit length must be at least 2")

	one = big.NewInt(1)
	two = big.NewInt(2)
)

// IsPrime reports whether x is (probably) prime.
func IsPrime(x *big.Int) bool {
	return x != nil && x.Sign() > 0 && x.ProbablyPrime(MillerRabinRounds)
}

// GeneratePrime draws odd integers of exactly bits bits from r until one
// passes IsPrime.
func GeneratePrime(r io.Reader, bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, ErrPrimeBits
	}
	buf := make([]byte, (bits+7)/8)
	excess := uint(len(buf)*8 - bits)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("keymath: read random: %w", err)
		}
		buf[0] &= 0xFF >> excess
		p := new(big.Int).SetBytes(buf)
		p.SetBit(p, bits-1, 1)
		p.SetBit(p, 0, 1)
		if IsPrime(p) {
			return p, nil
		}
	}
}

// BestExponent picks a public exponent for phi: the first of
// CommonExponents that is below phi and coprime with it, else the first
// prime from ScanStart upward (odd steps) coprime with phi. It returns nil
// once the scan reaches phi.
func BestExponent(phi *big.Int) *big.Int {
	if phi == nil || phi.Sign() <= 0 {
		return nil
	}
	for _, c := range CommonExponents {
		e := big.NewInt(c)
		if e.Cmp(phi) < 0 && Coprime(e, phi) {
			return e
		}
	}
	for e := big.NewInt(ScanStart); e.Cmp(phi) < 0; e.Add(e, two) {
		if IsPrime(e) && Coprime(e, phi) {
			return e
		}
	}
	return nil
}

// Coprime reports whether gcd(a, b) == 1.
func Coprime(a, b *big.Int) bool {
	return new(big.Int).GCD(nil, nil, a, b).Cmp(one) == 0
}

// ModInverse returns x with a*x ≡ 1 (mod m).
func ModInverse(a, m *big.Int) (*big.Int, bool) {
	x := new(big.Int).ModInverse(a, m)
	if x == nil {
		return nil, false
	}
	return x, true
}

// Totient returns (p-1)(q-1).
func Totient(p, q *big.Int) *big.Int {
	p1 := new(big.Int).Sub(p, one)
	q1 := new(big.Int).Sub(q, one)
	return p1.Mul(p1, q1)
}
