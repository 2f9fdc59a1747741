// Package party defines the identifiers used to distinguish protocol
// participants.
package party

import (
	"sort"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
)

// ID is a unique identifier for a party in a protocol execution.
//
// IDs are compared and sorted as strings. Every protocol in this module
// expects IDs to be provided in sorted order (see IDSlice).
type ID string

// Scalar deterministically maps this ID to a nonzero element of the group's
// scalar field. This is the I_j used for Shamir/VSS evaluation points, so
// it must be injective and never return 0.
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	return group.NewScalar().SetNat(idToNat(id))
}

func idToNat(id ID) *saferith.Nat {
	// Map the string to an integer by reading its bytes as a big-endian
	// Nat, so distinct short IDs give distinct values and the mapping stays
	// a pure function of the ID. An ID whose bytes are all zero (or the
	// empty ID) maps to 1 instead of 0.
	n := new(saferith.Nat).SetBytes([]byte(id))
	if n.EqZero() == 1 {
		n.SetUint64(1)
	}
	return n
}

// IDSlice is a sortable, de-duplicatable collection of IDs.
type IDSlice []ID

// NewIDSlice returns a sorted copy of ids.
func NewIDSlice(ids []ID) IDSlice {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	sort.Sort(out)
	return out
}

func (p IDSlice) Len() int           { return len(p) }
func (p IDSlice) Less(i, j int) bool { return p[i] < p[j] }
func (p IDSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Contains returns true if id is present in the slice.
func (p IDSlice) Contains(id ID) bool {
	for _, q := range p {
		if q == id {
			return true
		}
	}
	return false
}

// Valid returns true if the slice is sorted and contains no duplicates.
func (p IDSlice) Valid() bool {
	for i := 1; i < len(p); i++ {
		if p[i-1] >= p[i] {
			return false
		}
	}
	return true
}

// Remove returns a new slice with id removed, if present.
func (p IDSlice) Remove(id ID) IDSlice {
	out := make(IDSlice, 0, len(p))
	for _, q := range p {
		if q != id {
			out = append(out, q)
		}
	}
	return out
}
