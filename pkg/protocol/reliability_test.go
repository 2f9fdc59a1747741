package protocol_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pool"
	"github.com/cobaltss/cggmp21/pkg/protocol"
)

// A minimal two-round protocol used only to exercise MultiHandler's generic
// reliability check: every round's outgoing messages carry the sender's
// hash of the previous round's broadcasts, so a receiver can detect that it
// saw different broadcast bytes for some sender than another honest party
// did. Round 1 broadcasts an int; round 2 echoes every received value back
// as a point-to-point message and returns the combined map as the result.

type echoBroadcast struct{ Value int }

func (echoBroadcast) RoundNumber() round.Number { return 1 }

type echoAck struct{ Value int }

func (echoAck) RoundNumber() round.Number { return 2 }

type echoRound1 struct {
	*round.Helper
	value    int
	received map[party.ID]int
}

func (r *echoRound1) Number() round.Number                     { return 1 }
func (r *echoRound1) BroadcastContent() round.BroadcastContent { return &echoBroadcast{} }
func (r *echoRound1) MessageContent() round.Content            { return nil }
func (r *echoRound1) VerifyMessage(round.Message) error        { return nil }
func (r *echoRound1) StoreMessage(round.Message) error         { return nil }

func (r *echoRound1) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*echoBroadcast)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	r.received[msg.From] = body.Value
	return nil
}

func (r *echoRound1) Finalize(out chan<- *round.Message) (round.Session, error) {
	if err := r.BroadcastMessage(out, &echoBroadcast{Value: r.value}); err != nil {
		return r, err
	}
	return &echoRound2{Helper: r.Helper, received: r.received}, nil
}

type echoRound2 struct {
	*round.Helper
	received map[party.ID]int
}

func (r *echoRound2) Number() round.Number          { return 2 }
func (r *echoRound2) MessageContent() round.Content { return &echoAck{} }

func (r *echoRound2) VerifyMessage(msg round.Message) error {
	if _, ok := msg.Content.(*echoAck); !ok {
		return round.ErrInvalidContent
	}
	return nil
}

func (r *echoRound2) StoreMessage(round.Message) error { return nil }

func (r *echoRound2) Finalize(out chan<- *round.Message) (round.Session, error) {
	for _, id := range r.OtherPartyIDs() {
		if err := r.SendMessage(out, &echoAck{Value: r.received[id]}, id); err != nil {
			return r, err
		}
	}
	return r.ResultRound(r.received), nil
}

func startEcho(value int, partyIDs party.IDSlice, selfID party.ID) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		info := round.Info{
			ProtocolID:       "test/echo",
			FinalRoundNumber: 2,
			SelfID:           selfID,
			PartyIDs:         partyIDs,
			Group:            curve.Secp256k1{},
		}
		helper, err := round.NewSession(info, sessionID, pool.NoPool())
		if err != nil {
			return nil, err
		}
		return &echoRound1{
			Helper:   helper,
			value:    value,
			received: map[party.ID]int{selfID: value},
		}, nil
	}
}

func newEchoHandlers(t *testing.T, values map[party.ID]int) map[party.ID]*protocol.MultiHandler {
	t.Helper()
	ids := make([]party.ID, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	partyIDs := party.NewIDSlice(ids)

	handlers := make(map[party.ID]*protocol.MultiHandler, len(ids))
	for id, value := range values {
		h, err := protocol.NewMultiHandler(startEcho(value, partyIDs, id), []byte("echo-reliability-test"))
		require.NoError(t, err)
		handlers[id] = h
	}
	return handlers
}

// deliverRound drains perHandler messages from every handler's Listen
// channel and hands each one to every handler it is addressed to.
func deliverRound(t *testing.T, handlers map[party.ID]*protocol.MultiHandler, perHandler int) {
	t.Helper()
	var outgoing []*protocol.Message
	for _, h := range handlers {
		for i := 0; i < perHandler; i++ {
			msg := <-h.Listen()
			require.NotNil(t, msg)
			outgoing = append(outgoing, msg)
		}
	}
	for _, msg := range outgoing {
		for id, h := range handlers {
			if msg.IsFor(id) {
				h.Accept(msg)
			}
		}
	}
}

func TestEchoProtocolHonestRun(t *testing.T) {
	values := map[party.ID]int{"a": 1, "b": 2, "c": 3}
	handlers := newEchoHandlers(t, values)

	deliverRound(t, handlers, 1) // round 1 broadcasts
	deliverRound(t, handlers, 2) // round 2 p2p acks (one to each other party)

	for id, h := range handlers {
		result, err := h.Result()
		require.NoError(t, err, "party %q", id)
		received, ok := result.(map[party.ID]int)
		require.True(t, ok)
		assert.Equal(t, values, received)
	}
}

// TestMultiHandlerDetectsInconsistentBroadcast hands party "c" a forged copy
// of "a"'s round-1 broadcast while "b" sees the genuine one, reproducing
// what an unauthenticated relay sitting between "a" and its peers could do.
// Every honest party must abort with round.ErrReliabilityMismatch rather
// than silently disagree about what "a" broadcast.
func TestMultiHandlerDetectsInconsistentBroadcast(t *testing.T) {
	values := map[party.ID]int{"a": 1, "b": 2, "c": 3}
	handlers := newEchoHandlers(t, values)

	rawA := <-handlers["a"].Listen()
	rawB := <-handlers["b"].Listen()
	rawC := <-handlers["c"].Listen()

	forgedData, err := cbor.Marshal(&echoBroadcast{Value: 999})
	require.NoError(t, err)
	forgedFromA := *rawA
	forgedFromA.Data = forgedData

	handlers["a"].Accept(rawB)
	handlers["a"].Accept(rawC)

	handlers["b"].Accept(rawA)
	handlers["b"].Accept(rawC)

	handlers["c"].Accept(&forgedFromA)
	handlers["c"].Accept(rawB)

	var round2 []*protocol.Message
	for _, h := range handlers {
		round2 = append(round2, <-h.Listen(), <-h.Listen())
	}
	for _, msg := range round2 {
		for id, h := range handlers {
			if msg.IsFor(id) {
				h.Accept(msg)
			}
		}
	}

	resultOf := func(id party.ID) error {
		_, err := handlers[id].Result()
		return err
	}

	for _, id := range []party.ID{"a", "b", "c"} {
		err := resultOf(id)
		require.Error(t, err, "party %q should detect the reliability mismatch", id)
		assert.ErrorIs(t, err, round.ErrReliabilityMismatch)
	}

	var protoErr protocol.Error
	require.ErrorAs(t, resultOf("a"), &protoErr)
	assert.Contains(t, protoErr.Culprits, party.ID("c"))

	require.ErrorAs(t, resultOf("b"), &protoErr)
	assert.Contains(t, protoErr.Culprits, party.ID("c"))

	require.ErrorAs(t, resultOf("c"), &protoErr)
	assert.Contains(t, protoErr.Culprits, party.ID("a"))
	assert.Contains(t, protoErr.Culprits, party.ID("b"))
}
