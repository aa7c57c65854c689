package host

import (
	"context"
	"io"
	"testing"

	"github.com/ethpandaops/scenecheck/internal/testing/capture"
	"github.com/ethpandaops/scenecheck/internal/testing/testdef"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func physicsLevels() *testdef.LevelSet {
	return &testdef.LevelSet{
		Levels: []*testdef.Level{
			{
				Name:       "Base",
				Directory:  "Physics",
				LoadFrames: 2,
				Diagnostics: []*testdef.Diagnostic{
					{
						Kind:        "warning",
						Trigger:     testdef.TriggerLoad,
						AfterFrames: 1,
						Window:      "Physics",
						File:        "PhysXSystem.cpp",
						Line:        42,
						Function:    "Activate",
						Message:     "no default material",
					},
					{
						Kind:    "error",
						Trigger: testdef.TriggerEnterGameMode,
						Window:  "Physics",
						Message: "rigid body has no shape",
					},
				},
			},
			{Name: "Empty", Directory: "Physics"},
		},
	}
}

func step(t *testing.T, h *Host, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		require.NoError(t, h.Step(context.Background()))
	}
}

func TestHost_OpenLevelCompletesAfterLoadFrames(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := New(quietLogger(), physicsLevels(), Config{TransitionFrames: 1})

	ok, err := h.OpenLevel(ctx, "Physics/Base")
	require.NoError(t, err)
	require.True(t, ok)

	current, err := h.CurrentLevel(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)

	step(t, h, 2)

	current, err = h.CurrentLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Base", current)
	assert.Equal(t, uint64(2), h.Frame())
}

func TestHost_OpenLevelRejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := New(quietLogger(), physicsLevels(), Config{})

	ok, err := h.OpenLevel(ctx, "Physics/Missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.OpenLevel(ctx, "Physics/Empty")
	require.NoError(t, err)
	assert.True(t, ok)

	// Reopening the current level reports false.
	ok, err = h.OpenLevel(ctx, "Physics/Empty")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.EnterGameMode(ctx))

	ok, err = h.OpenLevel(ctx, "Physics/Base")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHost_GameModeTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := New(quietLogger(), physicsLevels(), Config{TransitionFrames: 3})

	require.ErrorIs(t, h.EnterGameMode(ctx), ErrNoLevelLoaded)

	ok, err := h.OpenLevel(ctx, "Physics/Empty")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, h.EnterGameMode(ctx))

	step(t, h, 2)

	in, err := h.InGameMode(ctx)
	require.NoError(t, err)
	assert.False(t, in)

	step(t, h, 1)

	in, err = h.InGameMode(ctx)
	require.NoError(t, err)
	assert.True(t, in)

	require.NoError(t, h.ExitGameMode(ctx))
	step(t, h, 3)

	in, err = h.InGameMode(ctx)
	require.NoError(t, err)
	assert.False(t, in)
}

func TestHost_DiagnosticsFireOnTrigger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := quietLogger()
	h := New(log, physicsLevels(), Config{})

	tracer, err := capture.Trace(log, h, func(_ *capture.Tracer) error {
		ok, err := h.OpenLevel(ctx, "Physics/Base")
		require.NoError(t, err)
		require.True(t, ok)

		// Load completes on frame 2, the warning is due one frame later.
		step(t, h, 2)
		require.NoError(t, h.EnterGameMode(ctx))
		step(t, h, 1)

		return nil
	})
	require.NoError(t, err)

	require.Len(t, tracer.Warnings(), 1)
	assert.Equal(t, capture.Warning{
		Window:   "Physics",
		File:     "PhysXSystem.cpp",
		Line:     42,
		Function: "Activate",
		Message:  "no default material",
	}, tracer.Warnings()[0])

	require.Len(t, tracer.Errors(), 1)
	assert.Equal(t, "rigid body has no shape", tracer.Errors()[0].Message)

	// Host log lines are mirrored as prints.
	var messages []string
	for _, p := range tracer.Prints() {
		assert.Equal(t, EditorWindow, p.Window)
		messages = append(messages, p.Message)
	}

	assert.Contains(t, messages, "Finished loading level Physics/Base")
	assert.Contains(t, messages, "Entered game mode")
}

func TestHost_TerminateRejectsFurtherCalls(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := New(quietLogger(), physicsLevels(), Config{})

	require.NoError(t, h.Terminate(ctx))
	assert.True(t, h.Terminated())

	require.ErrorIs(t, h.Step(ctx), ErrTerminated)
	require.ErrorIs(t, h.Terminate(ctx), ErrTerminated)
	require.ErrorIs(t, h.EnterGameMode(ctx), ErrTerminated)
	require.ErrorIs(t, h.ExitGameMode(ctx), ErrTerminated)

	_, err := h.OpenLevel(ctx, "Physics/Base")
	require.ErrorIs(t, err, ErrTerminated)

	_, err = h.CurrentLevel(ctx)
	require.ErrorIs(t, err, ErrTerminated)

	_, err = h.InGameMode(ctx)
	require.ErrorIs(t, err, ErrTerminated)
}

func TestHost_StepHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New(quietLogger(), nil, Config{})

	require.ErrorIs(t, h.Step(ctx), context.Canceled)
	assert.Zero(t, h.Frame())
}
