package trace

import "fmt"

// GrammarChecker wraps a Tracer and records the first out-of-sequence
// event it observes — a Stage outside any round, an EndRound with no
// matching BeginRound, a second Begin, events after End — without ever
// panicking on the caller. Mirrors progress.rs's ProfileError reasons
// (ProtocolNeverBegan, RoundNeverBegan, CantFinishStage), re-expressed as
// a single recorded error instead of a Result on every call.
type GrammarChecker struct {
	Tracer

	began     bool
	ended     bool
	inRound   bool
	pendingIO string // "", "send", or "receive"
	err       error
}

// NewGrammarChecker wraps t, forwarding every well-formed event to it.
func NewGrammarChecker(t Tracer) *GrammarChecker {
	return &GrammarChecker{Tracer: t}
}

// Err returns the first grammar violation observed, or nil if the traced
// sequence of events was well-formed so far.
func (g *GrammarChecker) Err() error { return g.err }

func (g *GrammarChecker) violate(format string, args ...interface{}) {
	if g.err == nil {
		g.err = fmt.Errorf(format, args...)
	}
}

func (g *GrammarChecker) Begin(protocolID string) {
	if g.began {
		g.violate("trace: Begin called twice")
	}
	g.began = true
	g.Tracer.Begin(protocolID)
}

func (g *GrammarChecker) BeginRound(number int) {
	if !g.began || g.ended {
		g.violate("trace: BeginRound(%d) outside Begin/End", number)
	}
	if g.inRound {
		g.violate("trace: BeginRound(%d) while a round is already open", number)
	}
	g.inRound = true
	g.Tracer.BeginRound(number)
}

func (g *GrammarChecker) Stage(name string) {
	if !g.inRound {
		g.violate("trace: Stage %q traced outside a round", name)
	}
	g.Tracer.Stage(name)
}

func (g *GrammarChecker) ReceiveMsgs() {
	if !g.inRound {
		g.violate("trace: ReceiveMsgs traced outside a round")
	}
	if g.pendingIO != "" {
		g.violate("trace: ReceiveMsgs while %s is still pending", g.pendingIO)
	}
	g.pendingIO = "receive"
	g.Tracer.ReceiveMsgs()
}

func (g *GrammarChecker) MsgsReceived(count int) {
	if g.pendingIO != "receive" {
		g.violate("trace: MsgsReceived without a matching ReceiveMsgs")
	}
	g.pendingIO = ""
	g.Tracer.MsgsReceived(count)
}

func (g *GrammarChecker) SendMsg() {
	if !g.inRound {
		g.violate("trace: SendMsg traced outside a round")
	}
	if g.pendingIO != "" {
		g.violate("trace: SendMsg while %s is still pending", g.pendingIO)
	}
	g.pendingIO = "send"
	g.Tracer.SendMsg()
}

func (g *GrammarChecker) MsgSent() {
	if g.pendingIO != "send" {
		g.violate("trace: MsgSent without a matching SendMsg")
	}
	g.pendingIO = ""
	g.Tracer.MsgSent()
}

func (g *GrammarChecker) EndRound() {
	if !g.inRound {
		g.violate("trace: EndRound without a matching BeginRound")
	}
	if g.pendingIO != "" {
		g.violate("trace: EndRound while %s is still pending", g.pendingIO)
	}
	g.inRound = false
	g.Tracer.EndRound()
}

func (g *GrammarChecker) End() {
	if g.ended {
		g.violate("trace: End called twice")
	}
	if g.inRound {
		g.violate("trace: End called while a round is still open")
	}
	g.ended = true
	g.Tracer.End()
}

var _ Tracer = (*GrammarChecker)(nil)
