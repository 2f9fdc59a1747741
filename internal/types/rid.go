// Package types holds small wire-level value types shared across rounds
// that don't belong to any single protocol package.
package types

import (
	"fmt"
	"io"

	"github.com/cobaltss/cggmp21/pkg/hash"
)

// RIDSize is the byte length of a rid/chain-key value.
const RIDSize = 32

// RID is a random identifier contributed by a single party during key
// generation and later XOR-combined into the session's shared rid (and,
// separately, the BIP-32 chain key). Its only job is to give the
// Fiat-Shamir transcript fresh, unpredictable entropy no single party
// controls.
type RID [RIDSize]byte

// NewRID draws a fresh, uniformly random RID from r.
func NewRID(r io.Reader) (RID, error) {
	var rid RID
	if _, err := io.ReadFull(r, rid[:]); err != nil {
		return RID{}, fmt.Errorf("types: failed to sample RID: %w", err)
	}
	return rid, nil
}

// XOR returns a new RID equal to rid XOR other, the way the CGGMP21 key
// generation rid and chain-key combine every party's individual
// contribution.
func (rid RID) XOR(other RID) RID {
	var out RID
	for i := range out {
		out[i] = rid[i] ^ other[i]
	}
	return out
}

// Validate reports whether rid is non-zero; an all-zero rid can only arise
// from a sampling failure or a malicious contribution of zero designed to
// cancel out in the XOR combination.
func (rid RID) Validate() error {
	var zero RID
	if rid == zero {
		return fmt.Errorf("types: RID is all-zero")
	}
	return nil
}

// Domain implements hash.WriterToWithDomain.
func (RID) Domain() string { return "RID" }

// WriteTo implements hash.WriterToWithDomain.
func (rid RID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(rid[:])
	return int64(n), err
}

var _ hash.WriterToWithDomain = RID{}
