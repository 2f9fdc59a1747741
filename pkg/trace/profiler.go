package trace

import (
	"fmt"
	"strings"
	"time"
)

// StageDuration is the time spent in one named stage.
type StageDuration struct {
	Name     string
	Duration time.Duration
}

// RoundDuration is the time breakdown for a single round.
type RoundDuration struct {
	Number      int
	Stages      []StageDuration
	Computation time.Duration
	Sending     time.Duration
	Receiving   time.Duration
}

// Report is a full PerfProfiler measurement of a protocol run.
type Report struct {
	Setup       time.Duration
	SetupStages []StageDuration
	Rounds      []RoundDuration
}

// PerfProfiler is a Tracer that records wall-clock time spent computing,
// sending, and receiving within each round, for benchmarking a protocol
// run. Grounded on progress.rs's PerfProfiler/PerfReport, with the
// Result-per-event error handling collapsed into a single Err() check.
type PerfProfiler struct {
	last      time.Time
	began     bool
	stageOpen bool
	stageIdx  int
	report    Report
	err       error
}

// NewPerfProfiler returns a profiler ready to be passed as a Tracer.
func NewPerfProfiler() *PerfProfiler { return &PerfProfiler{} }

// Report returns the measurements taken so far, or the first error
// encountered if the traced event sequence was malformed.
func (p *PerfProfiler) Report() (Report, error) {
	if p.err != nil {
		return Report{}, p.err
	}
	return p.report, nil
}

func (p *PerfProfiler) fail(format string, args ...interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

func (p *PerfProfiler) currentRound() *RoundDuration {
	if len(p.report.Rounds) == 0 {
		return nil
	}
	return &p.report.Rounds[len(p.report.Rounds)-1]
}

// closeStage folds elapsed time since p.last into whichever stage is open.
func (p *PerfProfiler) closeStage(now time.Time) {
	if !p.stageOpen {
		return
	}
	p.stageOpen = false
	elapsed := now.Sub(p.last)
	if r := p.currentRound(); r != nil {
		r.Stages[p.stageIdx].Duration += elapsed
	} else {
		p.report.SetupStages[p.stageIdx].Duration += elapsed
	}
}

func (p *PerfProfiler) Begin(string) {
	p.began = true
	p.last = time.Now()
}

func (p *PerfProfiler) BeginRound(number int) {
	now := time.Now()
	if !p.began {
		p.fail("trace: round %d began before Begin", number)
		return
	}
	p.closeStage(now)
	if r := p.currentRound(); r != nil {
		r.Computation += now.Sub(p.last)
	} else {
		p.report.Setup += now.Sub(p.last)
	}
	p.report.Rounds = append(p.report.Rounds, RoundDuration{Number: number})
	p.last = now
}

func (p *PerfProfiler) Stage(name string) {
	now := time.Now()
	p.closeStage(now)

	r := p.currentRound()
	stages := &p.report.SetupStages
	if r != nil {
		r.Computation += now.Sub(p.last)
		stages = &r.Stages
	} else {
		p.report.Setup += now.Sub(p.last)
	}

	idx := -1
	for i := range *stages {
		if (*stages)[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		*stages = append(*stages, StageDuration{Name: name})
		idx = len(*stages) - 1
	}
	p.stageIdx = idx
	p.stageOpen = true
	p.last = now
}

func (p *PerfProfiler) ReceiveMsgs() {
	now := time.Now()
	p.closeStage(now)
	if r := p.currentRound(); r != nil {
		r.Computation += now.Sub(p.last)
	}
	p.last = now
}

func (p *PerfProfiler) MsgsReceived(int) {
	now := time.Now()
	if r := p.currentRound(); r != nil {
		r.Receiving += now.Sub(p.last)
	} else {
		p.fail("trace: MsgsReceived before any round began")
	}
	p.last = now
}

func (p *PerfProfiler) SendMsg() {
	now := time.Now()
	p.closeStage(now)
	if r := p.currentRound(); r != nil {
		r.Computation += now.Sub(p.last)
	}
	p.last = now
}

func (p *PerfProfiler) MsgSent() {
	now := time.Now()
	if r := p.currentRound(); r != nil {
		r.Sending += now.Sub(p.last)
	} else {
		p.fail("trace: MsgSent before any round began")
	}
	p.last = now
}

func (p *PerfProfiler) EndRound() {
	now := time.Now()
	p.closeStage(now)
	if r := p.currentRound(); r != nil {
		r.Computation += now.Sub(p.last)
	}
	p.last = now
}

func (p *PerfProfiler) End() {
	now := time.Now()
	p.closeStage(now)
	if r := p.currentRound(); r != nil {
		r.Computation += now.Sub(p.last)
	} else {
		p.report.Setup += now.Sub(p.last)
	}
	p.last = now
}

func (r Report) String() string {
	var b strings.Builder
	total := r.Setup
	for _, rd := range r.Rounds {
		total += rd.Computation + rd.Sending + rd.Receiving
	}
	fmt.Fprintf(&b, "protocol took %s to complete\n", total)
	fmt.Fprintf(&b, "  setup: %s\n", r.Setup)
	for i, rd := range r.Rounds {
		fmt.Fprintf(&b, "  round %d: %s (compute %s, send %s, recv %s)\n",
			i+1, rd.Computation+rd.Sending+rd.Receiving, rd.Computation, rd.Sending, rd.Receiving)
	}
	return b.String()
}

var _ Tracer = (*PerfProfiler)(nil)
