package ecdsa_test

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cobaltss/cggmp21/pkg/ecdsa"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
)

// sign produces a textbook ECDSA signature directly (not through the
// threshold protocol) so Verify and NormalizeS can be exercised against a
// known-good (r, s) pair.
func sign(group curve.Curve, priv curve.Scalar, digest []byte) *ecdsa.Signature {
	k, R := sample.ScalarPointPair(rand.Reader, group)
	r := R.XScalar()
	m := ecdsa.ScalarFromHash(group, digest)
	kInv := group.NewScalar().Set(k).Invert()
	s := kInv.Mul(m.Add(r.Mul(priv)))
	return &ecdsa.Signature{R: r, S: s}
}

func TestSignatureVerify(t *testing.T) {
	group := curve.Secp256k1{}
	priv, public := sample.ScalarPointPair(rand.Reader, group)

	digest := sha256.Sum256([]byte("threshold signing is not that scary"))
	sig := sign(group, priv, digest[:])

	assert.True(t, sig.Verify(public, digest[:]))
}

func TestSignatureVerifyRejectsWrongDigest(t *testing.T) {
	group := curve.Secp256k1{}
	priv, public := sample.ScalarPointPair(rand.Reader, group)

	digest := sha256.Sum256([]byte("original message"))
	sig := sign(group, priv, digest[:])

	other := sha256.Sum256([]byte("tampered message"))
	assert.False(t, sig.Verify(public, other[:]))
}

func TestSignatureVerifyRejectsZeroComponents(t *testing.T) {
	group := curve.Secp256k1{}
	_, public := sample.ScalarPointPair(rand.Reader, group)
	digest := sha256.Sum256([]byte("whatever"))

	zero := group.NewScalar()
	nonZero, _ := sample.ScalarPointPair(rand.Reader, group)

	assert.False(t, (&ecdsa.Signature{R: zero, S: nonZero}).Verify(public, digest[:]))
	assert.False(t, (&ecdsa.Signature{R: nonZero, S: zero}).Verify(public, digest[:]))
}

func TestNormalizeSPicksLowS(t *testing.T) {
	group := curve.Secp256k1{}
	priv, public := sample.ScalarPointPair(rand.Reader, group)
	digest := sha256.Sum256([]byte("normalize me"))

	sig := sign(group, priv, digest[:])
	normalized := sig.NormalizeS()

	order := group.Order().Nat().Big()
	half := new(big.Int).Rsh(order, 1)
	assert.True(t, normalized.S.Nat().Big().Cmp(half) <= 0)
	// Normalizing preserves validity: low-S is just a re-encoding of the
	// same signature.
	assert.True(t, normalized.Verify(public, digest[:]))
}
