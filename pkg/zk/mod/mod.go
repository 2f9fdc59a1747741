// Package mod implements Π_mod, the zero-knowledge proof that a modulus N
// is a Blum integer: the product of two distinct primes p, q each
// congruent to 3 (mod 4). Every party's Paillier modulus must satisfy this
// during key generation, since several other proofs (Π_fac, Π_enc, Π_aff-g)
// rely on N having this structure.
package mod

import (
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/params"
)

// Public is the statement: N is a Blum integer.
type Public struct {
	N *saferith.Modulus
}

// Private is the witness: the prime factorization of N, and Euler's
// totient, which lets the prover invert the N-th power map mod N and
// extract the fourth roots the verifier checks.
type Private struct {
	P, Q *big.Int
	Phi  *big.Int
}

// rootResponse is one of the m parallel challenge responses.
type rootResponse struct {
	X *big.Int
	A bool
	B bool
	Z *big.Int
}

// Proof is a non-interactive Π_mod proof.
type Proof struct {
	W         *big.Int
	Responses []rootResponse
}

// NewProof builds a Π_mod proof for the modulus in priv, running sl.M
// parallel challenge rounds.
func NewProof(sl params.SecurityLevel, transcript *hash.Hash, pub Public, priv Private) *Proof {
	nBig := pub.N.Nat().Big()
	w := sampleNonResidue(nBig, priv.P, priv.Q)

	nInvModPhi := new(big.Int).ModInverse(nBig, priv.Phi)

	ys := challengeYs(transcript, pub, w, sl.M)
	responses := make([]rootResponse, sl.M)
	for i, y := range ys {
		x, a, b := fourthRoot(y, w, priv.P, priv.Q, nBig)
		z := new(big.Int).Exp(y, nInvModPhi, nBig)
		responses[i] = rootResponse{X: x, A: a, B: b, Z: z}
	}
	return &Proof{W: w, Responses: responses}
}

// Verify checks the proof against pub.
func (p *Proof) Verify(sl params.SecurityLevel, transcript *hash.Hash, pub Public) bool {
	if p == nil || len(p.Responses) != sl.M {
		return false
	}
	nBig := pub.N.Nat().Big()
	if nBig.Bit(0) == 0 {
		return false
	}
	if big.Jacobi(p.W, nBig) != -1 {
		return false
	}

	ys := challengeYs(transcript, pub, p.W, sl.M)
	four := big.NewInt(4)
	for i, y := range ys {
		r := p.Responses[i]

		zn := new(big.Int).Exp(r.Z, nBig, nBig)
		if zn.Cmp(y) != 0 {
			return false
		}

		rhs := new(big.Int).Set(y)
		if r.A {
			rhs.Neg(rhs)
			rhs.Mod(rhs, nBig)
		}
		if r.B {
			rhs.Mul(rhs, p.W)
			rhs.Mod(rhs, nBig)
		}
		lhs := new(big.Int).Exp(r.X, four, nBig)
		if lhs.Cmp(rhs) != 0 {
			return false
		}
	}
	return true
}

// sampleNonResidue finds a value with Jacobi symbol -1 mod N, by rejection
// sampling using the known factorization to compute the symbol quickly.
func sampleNonResidue(n, p, q *big.Int) *big.Int {
	for i := int64(2); ; i++ {
		w := big.NewInt(i)
		if big.Jacobi(w, p)*big.Jacobi(w, q) == -1 {
			return w
		}
	}
}

// fourthRoot finds x, a, b such that x^4 ≡ (-1)^a * w^b * y (mod n), which
// exists for exactly one choice of (a,b) whenever n is a Blum integer and
// gcd(y, n) = 1.
func fourthRoot(y, w, p, q, n *big.Int) (x *big.Int, a, b bool) {
	for _, aCandidate := range []bool{false, true} {
		for _, bCandidate := range []bool{false, true} {
			cand := new(big.Int).Set(y)
			if aCandidate {
				cand.Neg(cand)
				cand.Mod(cand, n)
			}
			if bCandidate {
				cand.Mul(cand, w)
				cand.Mod(cand, n)
			}
			if root, ok := sqrtSqrtCRT(cand, p, q, n); ok {
				return root, aCandidate, bCandidate
			}
		}
	}
	return big.NewInt(0), false, false
}

// sqrtSqrtCRT computes a fourth root of v mod n = p*q (p, q ≡ 3 mod 4) by
// taking two successive square roots in each of Z_p, Z_q and recombining
// via CRT, failing if v is not a quadratic residue at either stage.
func sqrtSqrtCRT(v, p, q, n *big.Int) (*big.Int, bool) {
	s1, ok := sqrtThenSqrt(v, p)
	if !ok {
		return nil, false
	}
	s2, ok := sqrtThenSqrt(v, q)
	if !ok {
		return nil, false
	}
	return crt(s1, s2, p, q, n), true
}

// sqrtThenSqrt computes a fourth root of v mod the prime p (p ≡ 3 mod 4) by
// two applications of the p≡3(mod4) square-root formula, rejecting v if it
// is not a residue at either step.
func sqrtThenSqrt(v, p *big.Int) (*big.Int, bool) {
	vModP := new(big.Int).Mod(v, p)
	root1, ok := sqrtMod3(vModP, p)
	if !ok {
		return nil, false
	}
	root2, ok := sqrtMod3(root1, p)
	if !ok {
		return nil, false
	}
	return root2, true
}

// sqrtMod3 computes a square root of a mod the prime p ≡ 3 (mod 4), using
// the closed form a^((p+1)/4), and verifies the result actually squares
// back to a (rejecting non-residues).
func sqrtMod3(a, p *big.Int) (*big.Int, bool) {
	exp := new(big.Int).Add(p, big.NewInt(1))
	exp.Rsh(exp, 2)
	root := new(big.Int).Exp(a, exp, p)
	check := new(big.Int).Mul(root, root)
	check.Mod(check, p)
	if check.Cmp(new(big.Int).Mod(a, p)) != 0 {
		return nil, false
	}
	return root, true
}

// crt recombines residues mod p and mod q into a residue mod n = p*q.
func crt(rp, rq, p, q, n *big.Int) *big.Int {
	qInvModP := new(big.Int).ModInverse(q, p)
	h := new(big.Int).Sub(rp, rq)
	h.Mul(h, qInvModP)
	h.Mod(h, p)
	result := new(big.Int).Mul(h, q)
	result.Add(result, rq)
	result.Mod(result, n)
	return result
}

// challengeYs derives m Fiat-Shamir challenges y_i in Z_N from the
// transcript, N, and W.
func challengeYs(transcript *hash.Hash, pub Public, w *big.Int, m int) []*big.Int {
	fork := transcript.Clone()
	_ = fork.WriteAny(
		&hash.BytesWithDomain{TheDomain: "zkmod/N", Bytes: pub.N.Nat().Big().Bytes()},
		&hash.BytesWithDomain{TheDomain: "zkmod/W", Bytes: w.Bytes()},
	)
	nBig := pub.N.Nat().Big()
	ys := make([]*big.Int, m)
	state := fork
	for i := 0; i < m; i++ {
		state = state.Clone()
		_ = state.WriteAny(&hash.BytesWithDomain{TheDomain: "zkmod/round", Bytes: []byte{byte(i)}})
		digest := state.Sum()
		y := new(big.Int).SetBytes(digest)
		y.Mod(y, nBig)
		ys[i] = y
	}
	return ys
}
