package round

import (
	"strconv"

	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pool"
	"github.com/cobaltss/cggmp21/pkg/trace"
)

// Helper bundles the plumbing every round needs and otherwise would have to
// reimplement: party bookkeeping, the session transcript, and outgoing
// message construction. Every concrete round embeds a *Helper and only adds
// the fields and logic specific to its own cryptography.
type Helper struct {
	protocolID       string
	finalRoundNumber Number
	ssid             []byte
	group            curve.Curve
	selfID           party.ID
	partyIDs         party.IDSlice
	otherPartyIDs    party.IDSlice
	threshold        int
	baseHash         *hash.Hash

	// Pool is the worker pool handed to this session. The rounds in this
	// module carry it but do their per-party verification sequentially.
	Pool *pool.Pool

	tracer trace.Tracer
}

// Info is the information common to every round of a session, used to
// construct its Helper.
type Info struct {
	ProtocolID       string
	FinalRoundNumber Number
	SSID             []byte
	Group            curve.Curve
	SelfID           party.ID
	PartyIDs         party.IDSlice
	Threshold        int
	Pool             *pool.Pool

	// Tracer receives progress events for this session. Nil means no one is
	// listening; NewHelper substitutes trace.NullTracer so rounds and the
	// handler never need to nil-check it.
	Tracer trace.Tracer
}

// NewSession derives this execution's SSID from the session ID together
// with every identifying piece of context (protocol ID, group, party set,
// threshold, and any auxiliary data a protocol needs bound in, such as the
// Config being used or the message being signed), then builds the Helper
// every round of the resulting session will embed.
func NewSession(info Info, sessionID []byte, pl *pool.Pool, auxiliary ...hash.WriterToWithDomain) (*Helper, error) {
	seed := hash.New(sessionID)
	items := make([]hash.WriterToWithDomain, 0, len(auxiliary)+4)
	items = append(items,
		&hash.BytesWithDomain{TheDomain: "Session/Protocol", Bytes: []byte(info.ProtocolID)},
		&hash.BytesWithDomain{TheDomain: "Session/Group", Bytes: []byte(info.Group.Name())},
		&hash.BytesWithDomain{TheDomain: "Session/Threshold", Bytes: []byte(strconv.Itoa(info.Threshold))},
	)
	for _, id := range info.PartyIDs {
		items = append(items, &hash.BytesWithDomain{TheDomain: "Session/Party", Bytes: []byte(id)})
	}
	items = append(items, auxiliary...)
	if err := seed.WriteAny(items...); err != nil {
		return nil, err
	}
	info.SSID = seed.Sum()
	if pl == nil {
		pl = pool.NoPool()
	}
	info.Pool = pl
	return NewHelper(info), nil
}

// NewHelper builds the Helper shared by every round of a session.
func NewHelper(info Info) *Helper {
	tracer := info.Tracer
	if tracer == nil {
		tracer = trace.NullTracer{}
	}
	h := &Helper{
		protocolID:       info.ProtocolID,
		finalRoundNumber: info.FinalRoundNumber,
		ssid:             info.SSID,
		group:            info.Group,
		selfID:           info.SelfID,
		partyIDs:         info.PartyIDs,
		otherPartyIDs:    info.PartyIDs.Remove(info.SelfID),
		threshold:        info.Threshold,
		baseHash:         hash.New(info.SSID),
		Pool:             info.Pool,
		tracer:           tracer,
	}
	return h
}

func (h *Helper) ProtocolID() string            { return h.protocolID }
func (h *Helper) FinalRoundNumber() Number      { return h.finalRoundNumber }
func (h *Helper) SSID() []byte                  { return h.ssid }
func (h *Helper) Group() curve.Curve            { return h.group }
func (h *Helper) SelfID() party.ID              { return h.selfID }
func (h *Helper) PartyIDs() party.IDSlice       { return h.partyIDs }
func (h *Helper) OtherPartyIDs() party.IDSlice  { return h.otherPartyIDs }
func (h *Helper) N() int                        { return len(h.partyIDs) }
func (h *Helper) Threshold() int                { return h.threshold }

// Tracer returns the progress tracer for this session, never nil.
func (h *Helper) Tracer() trace.Tracer { return h.tracer }

// Hash returns a fresh fork of the session transcript, seeded with the
// execution ID but independent of any state absorbed by the caller.
func (h *Helper) Hash() *hash.Hash {
	return h.baseHash.Clone()
}

// HashForID forks the session transcript further, additionally binding it
// to a single party's ID. This is used to build per-party Fiat-Shamir
// transcripts (e.g. each party's own Schnorr commitment proof) that cannot
// be confused with another party's.
func (h *Helper) HashForID(id party.ID) *hash.Hash {
	fork := h.Hash()
	_ = fork.WriteAny(&hash.BytesWithDomain{TheDomain: "Helper/ID", Bytes: []byte(id)})
	return fork
}

// BroadcastMessage enqueues content to be reliably broadcast to every other
// party.
func (h *Helper) BroadcastMessage(out chan<- *Message, content Content) error {
	out <- &Message{
		From:      h.selfID,
		To:        "",
		Content:   content,
		Broadcast: true,
	}
	return nil
}

// SendMessage enqueues content addressed to a single other party.
func (h *Helper) SendMessage(out chan<- *Message, content Content, to party.ID) error {
	out <- &Message{
		From:    h.selfID,
		To:      to,
		Content: content,
	}
	return nil
}

// ResultRound wraps a final protocol result into a terminal Session.
func (h *Helper) ResultRound(result interface{}) Session {
	return &Output{Helper: h, Result: result}
}

// AbortRound wraps a protocol failure into a terminal Session, blaming
// culprits for causing it.
func (h *Helper) AbortRound(err error, culprits ...party.ID) Session {
	return &Abort{Helper: h, Err: err, Culprits: culprits}
}
