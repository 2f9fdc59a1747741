// Package trace lets a protocol run report its own progress without
// depending on who (if anyone) is listening: a caller benchmarking a run,
// a UI showing a progress bar, or nothing at all.
//
// Grounded on cggmp21's progress.rs Tracer trait/Event enum, re-expressed
// as a Go interface with one method per event instead of a single
// trace_event(Event) entry point plus default methods (Go has no trait
// default-method equivalent worth emulating here).
package trace

// Tracer receives progress events from a single protocol run. Round
// numbers start at 1. Implementations must tolerate being called from
// whichever goroutine a round's Finalize/VerifyMessage runs on.
type Tracer interface {
	// Begin is called once, before round 1 starts.
	Begin(protocolID string)
	// BeginRound is called once per round, before any of that round's
	// work (VerifyMessage, StoreMessage, Finalize) begins.
	BeginRound(number int)
	// Stage marks a named sub-step of the current round's computation
	// (e.g. "verify-affg-proofs"). Calling it again with the same name
	// within the same round resumes that stage's timer.
	Stage(name string)
	// ReceiveMsgs/MsgsReceived bracket time spent waiting on the
	// network for a round's incoming messages.
	ReceiveMsgs()
	MsgsReceived(count int)
	// SendMsg/MsgSent bracket time spent handing a round's outgoing
	// messages to the transport.
	SendMsg()
	MsgSent()
	// EndRound is called once a round's Finalize has returned.
	EndRound()
	// End is called once after the final round completes or aborts.
	End()
}

// NullTracer discards every event. It is the default: protocol code always
// has a Tracer in hand and never needs to nil-check it.
type NullTracer struct{}

func (NullTracer) Begin(string)     {}
func (NullTracer) BeginRound(int)   {}
func (NullTracer) Stage(string)     {}
func (NullTracer) ReceiveMsgs()     {}
func (NullTracer) MsgsReceived(int) {}
func (NullTracer) SendMsg()         {}
func (NullTracer) MsgSent()         {}
func (NullTracer) EndRound()        {}
func (NullTracer) End()             {}

var _ Tracer = NullTracer{}
