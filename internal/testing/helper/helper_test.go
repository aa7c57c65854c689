package helper

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/poll"
	"github.com/ethpandaops/scenecheck/internal/testing/report"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession applies game mode requests after transitionFrames steps and
// advances a virtual clock by one frame per step.
type fakeSession struct {
	levels           map[string]bool
	current          string
	inGameMode       bool
	pending          *bool
	pendingFrames    int
	transitionFrames int
	frames           int
	terminated       int
	now              time.Time
	frame            time.Duration
}

func newFakeSession(transitionFrames int) *fakeSession {
	return &fakeSession{
		levels:           map[string]bool{"Physics/Base": true, "Physics/Ragdoll": true},
		transitionFrames: transitionFrames,
		now:              time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		frame:            16 * time.Millisecond,
	}
}

func (s *fakeSession) Now() time.Time { return s.now }

func (s *fakeSession) Step(_ context.Context) error {
	s.frames++
	s.now = s.now.Add(s.frame)

	if s.pending != nil {
		s.pendingFrames--
		if s.pendingFrames <= 0 {
			s.inGameMode = *s.pending
			s.pending = nil
		}
	}

	return nil
}

func (s *fakeSession) OpenLevel(_ context.Context, p string) (bool, error) {
	if !s.levels[p] {
		return false, nil
	}

	name := p[len("Physics/"):]
	if name == s.current {
		return false, nil
	}

	s.current = name

	return true, nil
}

func (s *fakeSession) CurrentLevel(context.Context) (string, error) { return s.current, nil }

func (s *fakeSession) request(v bool) {
	if s.transitionFrames < 0 {
		return
	}

	s.pending = &v
	s.pendingFrames = s.transitionFrames
}

func (s *fakeSession) EnterGameMode(context.Context) error { s.request(true); return nil }
func (s *fakeSession) ExitGameMode(context.Context) error  { s.request(false); return nil }
func (s *fakeSession) InGameMode(context.Context) (bool, error) {
	return s.inGameMode, nil
}

func (s *fakeSession) Terminate(context.Context) error {
	s.terminated++
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func newHelper(s *fakeSession) *Helper {
	log := quietLogger()
	ledger := report.NewLedger(log, report.WithTerminator(s))
	poller := poll.NewPoller(log, s, poll.WithClock(s))

	return New(log, s, s, poller, ledger, Config{
		LevelSettleFrames: 10,
		GameModeTimeout:   time.Second,
	})
}

func TestOpenLevel(t *testing.T) {
	t.Parallel()

	s := newFakeSession(2)
	h := newHelper(s)
	ctx := context.Background()

	require.NoError(t, h.OpenLevel(ctx, "Physics", "Base"))
	assert.Equal(t, "Base", s.current)
	assert.Equal(t, 10, s.frames)

	// Reopening the current level is a no-op, not a failure.
	require.NoError(t, h.OpenLevel(ctx, "Physics", "Base"))
	assert.Equal(t, 20, s.frames)

	err := h.OpenLevel(ctx, "Physics", "Missing")
	require.ErrorIs(t, err, ErrLevelNotOpened)
	assert.Equal(t, 20, s.frames)
}

func TestEnterAndExitGameMode(t *testing.T) {
	t.Parallel()

	s := newFakeSession(3)
	h := newHelper(s)
	ctx := context.Background()

	require.NoError(t, h.EnterGameMode(ctx, report.Msgs("entered", "not entered")))
	assert.True(t, s.inGameMode)

	require.NoError(t, h.ExitGameMode(ctx, report.Msgs("exited", "not exited")))
	assert.False(t, s.inGameMode)

	assert.Equal(t, []report.Outcome{
		{Success: true, Message: "Success: entered"},
		{Success: true, Message: "Success: exited"},
	}, h.Ledger().Outcomes())
	assert.Equal(t, 0, s.terminated)
}

func TestEnterGameMode_TimeoutAborts(t *testing.T) {
	t.Parallel()

	s := newFakeSession(-1) // never transitions
	h := newHelper(s)

	err := h.EnterGameMode(context.Background(), report.Msgs("entered", "not entered"))
	require.ErrorIs(t, err, report.ErrAbort)
	assert.Equal(t, 1, s.terminated)
	assert.Equal(t, []report.Outcome{{Success: false, Message: "Failure: not entered"}}, h.Ledger().Outcomes())
}

func TestFailFast(t *testing.T) {
	t.Parallel()

	s := newFakeSession(1)
	h := newHelper(s)

	err := h.FailFast(context.Background(), "cannot continue")

	var abort *report.AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, "cannot continue", abort.Reason)
	assert.Equal(t, 1, s.terminated)
}

func TestWaitForCondition(t *testing.T) {
	t.Parallel()

	s := newFakeSession(1)
	h := newHelper(s)

	ok, err := h.WaitForCondition(context.Background(), func() bool { return s.frames >= 5 }, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, s.frames)
}

func TestCloseEditor(t *testing.T) {
	t.Parallel()

	s := newFakeSession(1)
	h := newHelper(s)

	require.NoError(t, h.CloseEditor(context.Background()))
	assert.Equal(t, 1, s.terminated)
}
