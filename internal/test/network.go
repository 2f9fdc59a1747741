// Package test provides an in-memory Network and party-ID fixtures for
// driving a protocol.Handler end to end within a single process, the way
// package-level tests and the CLI's demo commands both need to: spin up
// one handler per party, wire their outgoing messages to each other's
// inboxes, and run until every party produces a result.
package test

import (
	"sync"

	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/protocol"
)

// PartyIDs returns n distinct, sorted party IDs suitable for a test or demo
// run: "1", "2", ..., "9", then "A", "B", ... for the tenth party onwards.
func PartyIDs(n int) party.IDSlice {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(string(rune('1' + i)))
		if i >= 9 {
			// Beyond 9 parties, fall back to single letters so IDs stay
			// distinct; tests rarely exercise more than a handful anyway.
			ids[i] = party.ID(string(rune('A' + i - 9)))
		}
	}
	return party.NewIDSlice(ids)
}

// Network is an in-memory message bus connecting every party in a single
// test or demo run. Each party has its own inbox channel; a broadcast
// message (To == "") is fanned out to every other party's inbox.
type Network struct {
	parties party.IDSlice

	mtx    sync.Mutex
	inbox  map[party.ID]chan *protocol.Message
	closed map[party.ID]bool
}

// NewNetwork builds a Network connecting exactly parties; Send panics if
// asked to deliver to (or from) any other ID.
func NewNetwork(parties party.IDSlice) *Network {
	n := &Network{
		parties: parties,
		inbox:   make(map[party.ID]chan *protocol.Message, len(parties)),
		closed:  make(map[party.ID]bool, len(parties)),
	}
	for _, id := range parties {
		n.inbox[id] = make(chan *protocol.Message, 2*len(parties))
	}
	return n
}

// Next returns the channel a party should receive incoming messages from.
func (n *Network) Next(id party.ID) <-chan *protocol.Message {
	return n.inbox[id]
}

// Send delivers msg as having come from "from", addressed to "to" (or, if
// to == "", broadcast to every other party in the network).
func (n *Network) Send(from, to party.ID, msg protocol.Message) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if _, ok := n.inbox[from]; !ok {
		panic("test: Send from unknown party " + string(from))
	}
	if to == "" {
		for _, id := range n.parties {
			if id == from {
				continue
			}
			n.deliver(id, &msg)
		}
		return
	}
	n.deliver(to, &msg)
}

func (n *Network) deliver(to party.ID, msg *protocol.Message) {
	inbox, ok := n.inbox[to]
	if !ok {
		panic("test: Send to unknown party " + string(to))
	}
	if n.closed[to] {
		return
	}
	inbox <- msg
}

// Done marks id as finished: any message still addressed to it is silently
// dropped instead of blocking on a full channel that nobody will drain.
func (n *Network) Done(id party.ID) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.closed[id] = true
}

// Transport is what HandlerLoop needs from a Network: a plain *Network
// satisfies it directly, and a wrapping type that embeds *Network and
// overrides Send (to fuzz, drop, or delay messages) satisfies it too,
// through Go's method promotion of the embedded Next/Done.
type Transport interface {
	Send(from, to party.ID, msg protocol.Message)
	Next(id party.ID) <-chan *protocol.Message
	Done(id party.ID)
}

// HandlerLoop drives h to completion for party id: it forwards every
// outgoing message to net, and feeds every inbound message addressed to id
// back into h, until h's outgoing channel closes (success or abort).
func HandlerLoop(id party.ID, h protocol.Handler, net Transport) error {
	out := h.Listen()
	for {
		select {
		case msg, ok := <-out:
			if !ok {
				net.Done(id)
				_, err := h.Result()
				return err
			}
			net.Send(id, msg.To, *msg)
		case msg := <-net.Next(id):
			if h.CanAccept(msg) {
				h.Accept(msg)
			}
		}
	}
}
