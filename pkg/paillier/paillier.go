// Package paillier implements the Paillier additively-homomorphic
// cryptosystem (spec component B), used throughout the protocol to encrypt
// secret shares and MtA blind factors under each party's own modulus.
package paillier

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
)

// PublicKey is a Paillier public key: the modulus N (and its square, kept
// precomputed since every operation needs it).
type PublicKey struct {
	n        *saferith.Modulus
	nNat     *saferith.Nat
	nSquared *saferith.Modulus
}

// NewPublicKey wraps a bare modulus N into a PublicKey, computing N^2 once.
func NewPublicKey(n *saferith.Nat) *PublicKey {
	nSquared := new(saferith.Nat).Mul(n, n, -1)
	return &PublicKey{
		n:        saferith.ModulusFromNat(n),
		nNat:     n,
		nSquared: saferith.ModulusFromNat(nSquared),
	}
}

// N returns the modulus N as a saferith.Modulus, ready for mod-N arithmetic.
func (pk *PublicKey) N() *saferith.Modulus { return pk.n }

// Clone returns an independent copy of pk, safe to hand to a goroutine that
// runs concurrently with the original's owner.
func (pk *PublicKey) Clone() *PublicKey {
	return &PublicKey{n: pk.n, nNat: pk.nNat, nSquared: pk.nSquared}
}

// NSquared returns N^2.
func (pk *PublicKey) NSquared() *saferith.Modulus { return pk.nSquared }

// ModulusBitLen is the bit length of N.
func (pk *PublicKey) ModulusBitLen() int { return pk.n.BitLen() }

// Ciphertext is a Paillier ciphertext C in Z_{N^2}^*.
type Ciphertext struct {
	c *saferith.Nat
}

// Nat exposes the raw ciphertext value, e.g. for hashing into a transcript.
func (ct *Ciphertext) Nat() *saferith.Nat { return ct.c }

// Clone returns an independent copy of ct.
func (ct *Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetNat(ct.c)}
}

// Equal reports whether ct and other encode the same ciphertext value.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	return ct.c.Eq(other.c) == 1
}

// Bytes returns the big-endian encoding of the raw ciphertext value, for
// wire transmission.
func (ct *Ciphertext) Bytes() []byte { return ct.c.Big().Bytes() }

// CiphertextFromBytes rebuilds a Ciphertext from the encoding Bytes
// produces. It does not validate that the value is actually a member of
// Z_{N^2}^*; callers receiving this over the wire should run
// PublicKey.ValidateCiphertexts before using it.
func CiphertextFromBytes(b []byte) *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetBytes(b)}
}

// Enc encrypts m under pk with a freshly sampled nonce, returning the
// ciphertext and the nonce used (the nonce must be kept secret, but is
// sometimes revealed later as part of a zero-knowledge proof).
func (pk *PublicKey) Enc(m *saferith.Int) (*Ciphertext, *saferith.Nat) {
	nonce := sample.UnitModN(rand.Reader, pk.n)
	return pk.EncWithNonce(m, nonce), nonce
}

// EncWithNonce encrypts m under pk using the given nonce, computing
// C = (1+N)^m * nonce^N mod N^2, simplified via (1+N)^m ≡ 1 + m*N (mod N^2).
func (pk *PublicKey) EncWithNonce(m *saferith.Int, nonce *saferith.Nat) *Ciphertext {
	mMod := intModNat(m, pk.n)
	gm := new(saferith.Nat).ModMul(mMod, pk.nNat, pk.nSquared)
	gm = new(saferith.Nat).ModAdd(gm, new(saferith.Nat).SetUint64(1), pk.nSquared)
	rn := new(saferith.Nat).Exp(nonce, pk.nNat, pk.nSquared)
	c := new(saferith.Nat).ModMul(gm, rn, pk.nSquared)
	return &Ciphertext{c: c}
}

// ValidateCiphertexts reports whether every ciphertext is a well-formed
// element of Z_{N^2}^*: nonzero and coprime to N^2. Rejecting malformed
// ciphertexts here stops a cheating party from smuggling a value outside
// the group into a homomorphic combination.
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	for _, ct := range cts {
		if ct == nil || ct.c == nil {
			return false
		}
		if ct.c.EqZero() == 1 {
			return false
		}
		g := new(big.Int).GCD(nil, nil, ct.c.Big(), pk.nSquared.Nat().Big())
		if g.Cmp(big.NewInt(1)) != 0 {
			return false
		}
	}
	return true
}

// Add homomorphically adds two ciphertexts encrypted under pk, returning an
// encryption of the sum of their plaintexts.
func (pk *PublicKey) Add(a, b *Ciphertext) *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).ModMul(a.c, b.c, pk.nSquared)}
}

// Mul homomorphically scales a ciphertext by a plaintext scalar, returning
// an encryption of scalar*plaintext. Negative scalars are handled by
// inverting the ciphertext first.
func (pk *PublicKey) Mul(ct *Ciphertext, scalar *saferith.Int) *Ciphertext {
	absBig := new(big.Int).Abs(scalar.Big())
	absNat := new(saferith.Nat).SetBig(absBig, pk.nSquared.BitLen())
	base := ct.c
	if scalar.Big().Sign() < 0 {
		base = new(saferith.Nat).ModInverse(ct.c, pk.nSquared)
	}
	return &Ciphertext{c: new(saferith.Nat).Exp(base, absNat, pk.nSquared)}
}

// SecretKey is a Paillier private key: the prime factorization of N, plus
// the precomputed values needed for decryption and randomness recovery.
type SecretKey struct {
	pk            *PublicKey
	p, q          *saferith.Nat
	phi         *saferith.Nat // (p-1)(q-1)
	phiInv      *saferith.Nat // phi^-1 mod N
	nInversePhi *saferith.Nat // N^-1 mod phi, used to recover encryption randomness
}

// PublicKey returns the public half of sk.
func (sk *SecretKey) PublicKey() *PublicKey { return sk.pk }

// P and Q return the secret prime factors of N.
func (sk *SecretKey) P() *saferith.Nat { return sk.p }
func (sk *SecretKey) Q() *saferith.Nat { return sk.q }

// Phi returns Euler's totient of N, i.e. (p-1)(q-1).
func (sk *SecretKey) Phi() *saferith.Nat { return sk.phi }

// Dec decrypts ct, returning a signed plaintext centered in (-N/2, N/2].
func (sk *SecretKey) Dec(ct *Ciphertext) (*saferith.Int, error) {
	if !sk.pk.ValidateCiphertexts(ct) {
		return nil, fmt.Errorf("paillier: malformed ciphertext")
	}
	u := new(saferith.Nat).Exp(ct.c, sk.phi, sk.pk.nSquared)
	l := lFunction(u, sk.pk.nNat)
	m := new(saferith.Nat).ModMul(l, sk.phiInv, sk.pk.n)
	return natToSignedInt(m, sk.pk.nNat), nil
}

// DecWithRandomness decrypts ct like Dec, and additionally recovers the
// encryption randomness that was used to produce it.
func (sk *SecretKey) DecWithRandomness(ct *Ciphertext) (*saferith.Int, *saferith.Nat, error) {
	m, err := sk.Dec(ct)
	if err != nil {
		return nil, nil, err
	}
	mMod := intModNat(m, sk.pk.n)
	gm := new(saferith.Nat).ModMul(mMod, sk.pk.nNat, sk.pk.nSquared)
	gm = new(saferith.Nat).ModAdd(gm, new(saferith.Nat).SetUint64(1), sk.pk.nSquared)
	gmInv := new(saferith.Nat).ModInverse(gm, sk.pk.nSquared)
	rn := new(saferith.Nat).ModMul(ct.c, gmInv, sk.pk.nSquared)
	r := new(saferith.Nat).Exp(rn, sk.nInversePhi, sk.pk.n)
	return m, r, nil
}

// lFunction computes (u-1)/n by exact integer division; valid only when
// u ≡ 1 (mod n), which holds for every well-formed ciphertext raised to phi.
func lFunction(u, n *saferith.Nat) *saferith.Nat {
	uBig := u.Big()
	uBig.Sub(uBig, big.NewInt(1))
	uBig.Div(uBig, n.Big())
	return new(saferith.Nat).SetBig(uBig, n.TrueLen())
}

// intModNat reduces a signed integer modulo n, returning a non-negative
// representative.
func intModNat(m *saferith.Int, n *saferith.Modulus) *saferith.Nat {
	mBig := new(big.Int).Mod(m.Big(), n.Nat().Big())
	return new(saferith.Nat).SetBig(mBig, n.BitLen())
}

// natToSignedInt centers a value in [0, n) to a signed representative in
// (-n/2, n/2], matching the convention the range proofs (Π_enc, Π_aff-g,
// Π_log*) use for plaintext representatives.
func natToSignedInt(m, n *saferith.Nat) *saferith.Int {
	mBig := m.Big()
	nBig := n.Big()
	half := new(big.Int).Rsh(nBig, 1)
	if mBig.Cmp(half) > 0 {
		mBig = new(big.Int).Sub(mBig, nBig)
	}
	return new(saferith.Int).SetBig(mBig, n.TrueLen()+1)
}
