package protocol

import (
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/party"
)

// Message is the wire-level envelope exchanged between parties: an
// opaque, already-CBOR-encoded round message plus the routing metadata a
// Handler needs to place it in the right round and, for broadcast
// messages, verify every party saw the same bytes.
type Message struct {
	// SSID is the execution ID of the session this message belongs to.
	SSID []byte
	// From is the party that sent this message.
	From party.ID
	// To is the intended recipient, or "" for a broadcast.
	To party.ID
	// Protocol identifies which protocol (and sub-protocol) produced this
	// message, so unrelated sessions never cross-process each other's
	// messages.
	Protocol string
	// RoundNumber is the round this message belongs to. 0 is reserved for
	// an abort notification, whose Data holds the human-readable reason.
	RoundNumber round.Number
	// Data is the CBOR-encoded round.Content.
	Data []byte
	// Broadcast indicates this message must be reliably broadcast: every
	// party must see the exact same bytes, which is checked via
	// BroadcastVerification in the following round.
	Broadcast bool
	// BroadcastVerification carries the hash of the previous round's
	// broadcast messages, letting the receiver detect an equivocating
	// sender.
	BroadcastVerification []byte
}

// IsFor reports whether this message should be delivered to id.
func (m *Message) IsFor(id party.ID) bool {
	if m.From == id {
		return false
	}
	return m.To == "" || m.To == id
}

// Hash returns a digest of the message's content, used to build the
// broadcast-verification hash for the following round.
func (m *Message) Hash() []byte {
	h := hash.New(m.SSID)
	_ = h.WriteAny(
		&hash.BytesWithDomain{TheDomain: "Message/From", Bytes: []byte(m.From)},
		&hash.BytesWithDomain{TheDomain: "Message/To", Bytes: []byte(m.To)},
		&hash.BytesWithDomain{TheDomain: "Message/Protocol", Bytes: []byte(m.Protocol)},
		&hash.BytesWithDomain{TheDomain: "Message/Data", Bytes: m.Data},
	)
	return h.Sum()
}

// Error wraps a protocol abort: the underlying reason, and the parties
// blamed for causing it.
type Error struct {
	Culprits []party.ID
	Err      error
}

func (e Error) Error() string {
	return fmt.Sprintf("protocol: aborted (culprits: %v): %s", e.Culprits, e.Err)
}

func (e Error) Unwrap() error { return e.Err }
