package sample

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
)

// BlumPrimes samples two distinct safe Blum primes p, q of the requested
// bit length: p and q are prime, (p-1)/2 and (q-1)/2 are prime, and
// p ≡ q ≡ 3 (mod 4). These are the conditions §3 requires of a party's
// Paillier modulus N = p*q.
func BlumPrimes(rnd io.Reader, bits int) (p, q *saferith.Nat) {
	pBig := safeBlumPrime(rnd, bits)
	qBig := safeBlumPrime(rnd, bits)
	for qBig.Cmp(pBig) == 0 {
		qBig = safeBlumPrime(rnd, bits)
	}
	return new(saferith.Nat).SetBig(pBig, bits+1), new(saferith.Nat).SetBig(qBig, bits+1)
}

// safeBlumPrime samples a single prime p of the given bit length such that
// (p-1)/2 is also prime and p ≡ 3 (mod 4).
func safeBlumPrime(rnd io.Reader, bits int) *big.Int {
	for {
		q, err := rand.Prime(rnd, bits-1)
		if err != nil {
			panic(err)
		}
		p := new(big.Int).Lsh(q, 1)
		p.Add(p, big.NewInt(1))
		if p.Bit(0) == 0 {
			continue
		}
		// p = 2q+1 is automatically ≡ 3 (mod 4) whenever q is odd, which
		// every prime > 2 is.
		if !p.ProbablyPrime(20) {
			continue
		}
		if p.BitLen() != bits {
			continue
		}
		return p
	}
}
