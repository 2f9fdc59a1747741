package paillier

import (
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
)

// KeyGen samples a fresh Paillier key pair whose modulus N = p*q is the
// product of two safe Blum primes of the given bit length each (so N has
// roughly 2*bits bits), per the Paillier-Blum modulus requirement.
func KeyGen(rnd io.Reader, bits int) (*SecretKey, *PublicKey) {
	p, q := sample.BlumPrimes(rnd, bits)
	sk := NewSecretKeyFromPrimes(p, q)
	return sk, sk.pk
}

// NewSecretKeyFromPrimes rebuilds a SecretKey from its factorization,
// recomputing every derived value (N, phi, and the inverses used by
// Dec/DecWithRandomness). Used both by KeyGen and when deserializing a
// persisted key.
func NewSecretKeyFromPrimes(p, q *saferith.Nat) *SecretKey {
	n := new(saferith.Nat).Mul(p, q, -1)
	pk := NewPublicKey(n)

	one := big.NewInt(1)
	pMinusOne := new(big.Int).Sub(p.Big(), one)
	qMinusOne := new(big.Int).Sub(q.Big(), one)
	phiBig := new(big.Int).Mul(pMinusOne, qMinusOne)
	phi := new(saferith.Nat).SetBig(phiBig, phiBig.BitLen())
	phiModulus := saferith.ModulusFromNat(phi)

	phiInv := new(saferith.Nat).ModInverse(phi, pk.n)
	nInversePhi := new(saferith.Nat).ModInverse(pk.nNat, phiModulus)

	return &SecretKey{
		pk:          pk,
		p:           p,
		q:           q,
		phi:         phi,
		phiInv:      phiInv,
		nInversePhi: nInversePhi,
	}
}
