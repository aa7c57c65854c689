package report

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AbortedOutcomeIsReported(t *testing.T) {
	t.Parallel()

	term := &fakeTerminator{}
	l := NewLedger(quietLogger(), WithTerminator(term))

	reachedAfterAbort := false
	rep, err := Run(context.Background(), l, "critical", func(ctx context.Context, l *Ledger) error {
		l.Result(Msgs("first", "first failed"), true)

		if err := l.Critical(ctx, Msgs("entered", "not entered"), false, "stop here"); err != nil {
			return err
		}

		reachedAfterAbort = true

		return nil
	}, nil)
	require.NoError(t, err)

	assert.False(t, reachedAfterAbort)
	assert.True(t, rep.Aborted)
	assert.False(t, rep.Success)
	assert.True(t, rep.HasTrace)
	assert.Equal(t, 1, term.calls)
	assert.Contains(t, rep.Text, "[FAILED ] Failure: not entered")
	assert.Contains(t, rep.Text, "EXCEPTION raised:\n  run aborted: stop here")
	assert.NotEmpty(t, rep.RunID)
}

func TestRun_PanicIsCaptured(t *testing.T) {
	t.Parallel()

	l := NewLedger(quietLogger())

	rep, err := Run(context.Background(), l, "panics", func(_ context.Context, _ *Ledger) error {
		panic("nil entity")
	}, nil)
	require.NoError(t, err)

	assert.False(t, rep.Success)
	assert.False(t, rep.Aborted)
	assert.Contains(t, rep.Trace, "panic: nil entity")
	assert.Contains(t, rep.Trace, "goroutine")
}

func TestRun_SuccessfulRoutine(t *testing.T) {
	t.Parallel()

	var got RunReport

	sink := SinkFunc(func(_ context.Context, r RunReport) error {
		got = r
		return nil
	})

	l := NewLedger(quietLogger())
	rep, err := Run(context.Background(), l, "ok", func(_ context.Context, l *Ledger) error {
		l.Result(Msgs("a", "b"), true)
		return nil
	}, sink)
	require.NoError(t, err)

	assert.True(t, rep.Success)
	assert.Equal(t, rep.RunID, got.RunID)
	assert.Equal(t, 1, got.Passed())
}

func TestRun_SinkFailureIsReturned(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	l := NewLedger(quietLogger())

	_, err := Run(context.Background(), l, "sink", func(context.Context, *Ledger) error { return nil },
		SinkFunc(func(context.Context, RunReport) error { return boom }))

	require.ErrorIs(t, err, boom)
}

func TestWriterSink_WritesReport(t *testing.T) {
	// Disable colors for consistent testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer

	l := NewLedger(quietLogger())
	l.Result(Msgs("a", "b"), true)

	rep := l.Report("writer")
	require.NoError(t, NewWriterSink(&buf).Report(context.Background(), rep))

	assert.Equal(t, "Report for writer:\n[SUCCESS] Success: a\nTest result:  SUCCESS\n", buf.String())
}

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++

	return w.Buffer.Write(p)
}

func TestWriterSink_SingleWritePerReport(t *testing.T) {
	t.Parallel()

	var w countingWriter

	l := NewLedger(quietLogger())
	l.Result(Msgs("a", "b"), true)
	l.Result(Msgs("c", "d"), false)

	require.NoError(t, NewWriterSink(&w).Report(context.Background(), l.Report("single")))

	assert.Equal(t, 1, w.writes)
	assert.Contains(t, w.String(), "Test result:  FAILURE")
}

func TestFileSink_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "results")
	sink := NewFileSink(quietLogger(), dir)

	l := NewLedger(quietLogger())
	l.Result(Msgs("a", "b"), true)
	l.Result(Msgs("c", "d"), false)

	rep, err := Run(context.Background(), l, "level/one", func(context.Context, *Ledger) error { return nil }, sink)
	require.NoError(t, err)

	doc, err := LoadResultDocument(sink.Path(rep))
	require.NoError(t, err)

	assert.Equal(t, rep.RunID, doc.RunID)
	assert.Equal(t, VerdictFailure, doc.Verdict)
	assert.False(t, doc.Success)
	assert.Equal(t, rep.Outcomes, doc.Outcomes)
	assert.Equal(t, rep.Text, doc.Report)
	assert.Contains(t, sink.Path(rep), "level_one-")

	parsed, err := ParseVerdict(doc.Report)
	require.NoError(t, err)
	assert.Equal(t, doc.Success, parsed)
}

func TestMultiSink_JoinsErrors(t *testing.T) {
	t.Parallel()

	var (
		calls int
		boom  = errors.New("boom")
	)

	counting := SinkFunc(func(context.Context, RunReport) error {
		calls++
		return nil
	})
	failing := SinkFunc(func(context.Context, RunReport) error { return boom })

	err := MultiSink(counting, nil, failing, counting).Report(context.Background(), RunReport{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
