// Package hash implements the domain-separated transcript hashing used for
// every Fiat-Shamir challenge and hash commitment in this module (spec
// component D/E). Every transcript is seeded with the execution ID before
// any party-specific data is absorbed (spec component K), so no two
// protocol runs can ever produce colliding challenges.
package hash

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/sha3"
)

const digestSize = 32

// WriterToWithDomain is anything that can serialize itself into a Hash
// transcript under a named domain tag, preventing two different kinds of
// value from ever hashing to the same bytes.
type WriterToWithDomain interface {
	Domain() string
	WriteTo(w io.Writer) (int64, error)
}

// BytesWithDomain is the simplest WriterToWithDomain: a raw byte string
// tagged with an explicit domain.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

func (b *BytesWithDomain) Domain() string { return b.TheDomain }

func (b *BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Hash is a cloneable, domain-separated transcript built on SHAKE256. Since
// ShakeHash.Clone() forks the sponge state without disturbing the original,
// a single Hash seeded with the execution ID can be cheaply forked per
// round/peer/proof without ever re-absorbing the prefix by hand.
type Hash struct {
	state sha3.ShakeHash
}

// New creates a fresh transcript seeded with the given execution ID (SSID).
// The SSID is always the very first thing absorbed.
func New(ssid []byte) *Hash {
	h := &Hash{state: sha3.NewShake256()}
	_ = h.WriteAny(&BytesWithDomain{TheDomain: "ExecutionID", Bytes: ssid})
	return h
}

// Clone forks the transcript so that further writes to the fork do not
// affect the original (or other forks).
func (h *Hash) Clone() *Hash {
	return &Hash{state: h.state.Clone()}
}

// WriteAny absorbs each item under its declared domain, with explicit
// length prefixes so the encoding is injective (no ambiguity between,
// say, "ab"+"c" and "a"+"bc").
func (h *Hash) WriteAny(items ...WriterToWithDomain) error {
	for _, item := range items {
		domain := []byte(item.Domain())
		if err := writeFramed(h.state, domain); err != nil {
			return err
		}
		var buf bufferWriter
		if _, err := item.WriteTo(&buf); err != nil {
			return err
		}
		if err := writeFramed(h.state, buf); err != nil {
			return err
		}
	}
	return nil
}

func writeFramed(w io.Writer, data []byte) error {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

type bufferWriter []byte

func (b *bufferWriter) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

// Sum squeezes a fixed-size digest out of the transcript without consuming
// it further (further WriteAny calls continue from the forked state as
// normal, since Sum reads from a clone).
func (h *Hash) Sum() []byte {
	clone := h.state.Clone()
	out := make([]byte, digestSize)
	_, _ = clone.Read(out)
	return out
}

// Commitment is the public digest produced by Hash.Commit.
type Commitment []byte

// Decommitment is the secret nonce that must be revealed to open a
// Commitment.
type Decommitment []byte

// Commit absorbs items into a fork of h, mixes in a freshly drawn nonce,
// and returns the resulting digest along with the nonce needed to open it
// later.
func (h *Hash) Commit(items ...WriterToWithDomain) (Commitment, Decommitment, error) {
	nonce := make([]byte, digestSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	fork := h.Clone()
	if err := fork.WriteAny(items...); err != nil {
		return nil, nil, err
	}
	if err := fork.WriteAny(&BytesWithDomain{TheDomain: "Decommitment", Bytes: nonce}); err != nil {
		return nil, nil, err
	}
	return fork.Sum(), nonce, nil
}

// Decommit recomputes the commitment from items and the claimed nonce and
// reports whether it matches c.
func (h *Hash) Decommit(c Commitment, d Decommitment, items ...WriterToWithDomain) bool {
	fork := h.Clone()
	if err := fork.WriteAny(items...); err != nil {
		return false
	}
	if err := fork.WriteAny(&BytesWithDomain{TheDomain: "Decommitment", Bytes: d}); err != nil {
		return false
	}
	got := fork.Sum()
	if len(got) != len(c) {
		return false
	}
	var diff byte
	for i := range got {
		diff |= got[i] ^ c[i]
	}
	return diff == 0
}
