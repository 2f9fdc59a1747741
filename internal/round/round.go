// Package round defines the state-machine contract every protocol round
// implements: a round consumes the previous round's messages, produces its
// own, and returns either the next round, a terminal Output, or an Abort.
// MultiHandler (pkg/protocol) drives this state machine without knowing
// anything about the cryptography inside any particular round.
package round

import (
	"errors"

	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/trace"
)

// Number identifies a round within a protocol's sequence. 0 is reserved to
// mean "abort notification" at the wire level (see protocol.Message).
type Number uint32

// ErrInvalidContent is returned by VerifyMessage/StoreBroadcastMessage when
// a message's content does not have the concrete type the round expects.
var ErrInvalidContent = errors.New("round: message content has unexpected type")

// ErrReliabilityMismatch is the abort cause MultiHandler reports when a
// party's claimed hash of the previous round's broadcasts (carried in the
// following round's BroadcastVerification field) disagrees with the hash
// the local party computed itself — evidence that the sender equivocated,
// delivering different broadcast payloads to different parties.
var ErrReliabilityMismatch = errors.New("round: inconsistent broadcast detected (reliability check failed)")

// Content is a round's wire payload: something CBOR can (de)serialize and
// that can name which round it belongs to, so a stray or replayed message
// is caught immediately.
type Content interface {
	RoundNumber() Number
}

// BroadcastContent is the Content returned by a BroadcastRound's
// reliable-broadcast message.
type BroadcastContent interface {
	Content
}

// NormalBroadcastContent is embedded by every broadcast content type for
// documentation purposes; it carries no behavior of its own today.
type NormalBroadcastContent struct{}

// Message is a single round's content, addressed and tagged as broadcast
// or point-to-point.
type Message struct {
	From      party.ID
	To        party.ID
	Content   Content
	Broadcast bool
}

// Session is one round of a protocol's execution.
type Session interface {
	// Number is this round's position in the protocol.
	Number() Number
	// FinalRoundNumber is the last round number this session will ever
	// reach (used to reject stale or out-of-range messages).
	FinalRoundNumber() Number
	// ProtocolID names the protocol (and its mode), e.g. "cmp/sign".
	ProtocolID() string
	// SSID is this execution's unique execution ID.
	SSID() []byte
	// SelfID is this party's own ID.
	SelfID() party.ID
	// PartyIDs are every party participating in this session, sorted.
	PartyIDs() party.IDSlice
	// OtherPartyIDs is PartyIDs minus SelfID.
	OtherPartyIDs() party.IDSlice
	// N is len(PartyIDs()).
	N() int
	// MessageContent returns a fresh, empty instance of the point-to-point
	// content this round expects, or nil if it expects none.
	MessageContent() Content
	// VerifyMessage checks an incoming point-to-point message's content
	// against this round's cryptographic requirements, without mutating
	// state.
	VerifyMessage(Message) error
	// StoreMessage records an already-verified point-to-point message.
	StoreMessage(Message) error
	// Finalize is called once every expected message for this round has
	// arrived; it produces the next round (or a terminal Output/Abort)
	// along with any outgoing messages.
	Finalize(out chan<- *Message) (Session, error)
	// Hash returns a fork of this session's transcript, seeded with the
	// execution ID, ready for further domain-separated absorption.
	Hash() *hash.Hash
	// Tracer returns this session's progress tracer, never nil.
	Tracer() trace.Tracer
}

// BroadcastRound is a Session that also expects a reliably-broadcast
// message this round.
type BroadcastRound interface {
	Session
	// BroadcastContent returns a fresh, empty instance of this round's
	// broadcast content.
	BroadcastContent() BroadcastContent
	// StoreBroadcastMessage verifies and records an incoming broadcast
	// message.
	StoreBroadcastMessage(Message) error
}
