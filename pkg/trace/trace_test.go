package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltss/cggmp21/pkg/trace"
)

func TestNullTracerImplementsTracer(t *testing.T) {
	var tracer trace.Tracer = trace.NullTracer{}
	tracer.Begin("cmp/sign")
	tracer.BeginRound(1)
	tracer.Stage("verify-affg-proofs")
	tracer.ReceiveMsgs()
	tracer.MsgsReceived(3)
	tracer.SendMsg()
	tracer.MsgSent()
	tracer.EndRound()
	tracer.End()
}

func runWellFormedSequence(tracer trace.Tracer) {
	tracer.Begin("cmp/sign")
	for round := 1; round <= 2; round++ {
		tracer.BeginRound(round)
		tracer.Stage("compute")
		tracer.ReceiveMsgs()
		tracer.MsgsReceived(2)
		tracer.SendMsg()
		tracer.MsgSent()
		tracer.EndRound()
	}
	tracer.End()
}

func TestGrammarCheckerAcceptsWellFormedSequence(t *testing.T) {
	checker := trace.NewGrammarChecker(trace.NullTracer{})
	runWellFormedSequence(checker)
	assert.NoError(t, checker.Err())
}

func TestGrammarCheckerRejectsDoubleBegin(t *testing.T) {
	checker := trace.NewGrammarChecker(trace.NullTracer{})
	checker.Begin("cmp/sign")
	checker.Begin("cmp/sign")
	assert.Error(t, checker.Err())
}

func TestGrammarCheckerRejectsStageOutsideRound(t *testing.T) {
	checker := trace.NewGrammarChecker(trace.NullTracer{})
	checker.Begin("cmp/sign")
	checker.Stage("compute")
	assert.Error(t, checker.Err())
}

func TestGrammarCheckerRejectsUnmatchedEndRound(t *testing.T) {
	checker := trace.NewGrammarChecker(trace.NullTracer{})
	checker.Begin("cmp/sign")
	checker.EndRound()
	assert.Error(t, checker.Err())
}

func TestGrammarCheckerRejectsOverlappingSendReceive(t *testing.T) {
	checker := trace.NewGrammarChecker(trace.NullTracer{})
	checker.Begin("cmp/sign")
	checker.BeginRound(1)
	checker.SendMsg()
	checker.ReceiveMsgs()
	assert.Error(t, checker.Err())
}

func TestPerfProfilerRecordsRounds(t *testing.T) {
	profiler := trace.NewPerfProfiler()
	runWellFormedSequence(profiler)

	report, err := profiler.Report()
	require.NoError(t, err)
	assert.Len(t, report.Rounds, 2)
	assert.Equal(t, 1, report.Rounds[0].Number)
	assert.Equal(t, 2, report.Rounds[1].Number)
	assert.NotEmpty(t, report.String())
}

func TestPerfProfilerFailsOnOutOfSequenceEvents(t *testing.T) {
	profiler := trace.NewPerfProfiler()
	profiler.MsgSent()

	_, err := profiler.Report()
	assert.Error(t, err)
}
