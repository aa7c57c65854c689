package testdef

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/capture"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func TestLoadSuite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeFile(t, dir, "physics.suite.yaml", `
name: physics
levels: levels.yaml
tests:
  - name: game_mode
    script: scripts/game_mode.js
    timeout: 30s
  - name: tracer
    script: /abs/tracer.js
`)

	suite, err := NewLoader(quietLogger()).LoadSuite(p)
	require.NoError(t, err)

	assert.Equal(t, "physics", suite.Name)
	require.Len(t, suite.Tests, 2)
	assert.Equal(t, 30*time.Second, suite.Tests[0].Timeout)
	assert.Equal(t, filepath.Join(dir, "scripts", "game_mode.js"), suite.ScriptPath(suite.Tests[0]))
	assert.Equal(t, "/abs/tracer.js", suite.ScriptPath(suite.Tests[1]))
	assert.Equal(t, filepath.Join(dir, "levels.yaml"), suite.LevelsPath())
}

func TestLoadSuite_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		err     error
	}{
		{
			name:    "missing name",
			content: "tests:\n  - name: a\n    script: a.js\n",
			err:     errSuiteNameRequired,
		},
		{
			name:    "no tests",
			content: "name: s\n",
			err:     errSuiteHasNoTests,
		},
		{
			name:    "test missing name",
			content: "name: s\ntests:\n  - script: a.js\n",
			err:     errTestMissingName,
		},
		{
			name:    "test missing script",
			content: "name: s\ntests:\n  - name: a\n",
			err:     errTestMissingScript,
		},
		{
			name:    "duplicate test",
			content: "name: s\ntests:\n  - name: a\n    script: a.js\n  - name: a\n    script: b.js\n",
			err:     errTestDuplicateName,
		},
		{
			name:    "negative timeout",
			content: "name: s\ntests:\n  - name: a\n    script: a.js\n    timeout: -1s\n",
			err:     errTestNegativeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := writeFile(t, t.TempDir(), "s.suite.yaml", tt.content)

			_, err := NewLoader(quietLogger()).LoadSuite(p)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadLevels(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "levels.yaml", `
levels:
  - name: Base
    directory: Physics
    load_frames: 5
    diagnostics:
      - kind: warning
        trigger: load
        after_frames: 2
        window: Physics
        file: PhysXSystem.cpp
        line: 120
        function: Activate
        message: no default material
      - kind: print
        trigger: enter_game_mode
        window: Game
        message: simulation started
  - name: Empty
    directory: Physics
`)

	set, err := NewLoader(quietLogger()).LoadLevels(p)
	require.NoError(t, err)
	require.Len(t, set.Levels, 2)

	level, ok := set.Find("Physics/Base")
	require.True(t, ok)
	assert.Equal(t, 5, level.LoadFrames)

	ev, err := level.Diagnostics[0].Event()
	require.NoError(t, err)
	assert.Equal(t, capture.Warning{
		Window:   "Physics",
		File:     "PhysXSystem.cpp",
		Line:     120,
		Function: "Activate",
		Message:  "no default material",
	}, ev)

	ev, err = level.Diagnostics[1].Event()
	require.NoError(t, err)
	assert.Equal(t, capture.Print{Window: "Game", Message: "simulation started"}, ev)

	_, ok = set.Find("Physics/Missing")
	assert.False(t, ok)
}

func TestLoadLevels_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		err     error
	}{
		{
			name:    "missing name",
			content: "levels:\n  - directory: d\n",
			err:     errLevelMissingName,
		},
		{
			name:    "duplicate",
			content: "levels:\n  - name: a\n  - name: a\n",
			err:     errLevelDuplicate,
		},
		{
			name:    "bad kind",
			content: "levels:\n  - name: a\n    diagnostics:\n      - kind: fatal\n        trigger: load\n        message: m\n",
			err:     errDiagnosticInvalidKind,
		},
		{
			name:    "bad trigger",
			content: "levels:\n  - name: a\n    diagnostics:\n      - kind: error\n        trigger: save\n        message: m\n",
			err:     errDiagnosticInvalidTrigger,
		},
		{
			name:    "missing message",
			content: "levels:\n  - name: a\n    diagnostics:\n      - kind: error\n        trigger: load\n",
			err:     errDiagnosticMissingMessage,
		},
		{
			name:    "assert with window",
			content: "levels:\n  - name: a\n    diagnostics:\n      - kind: assert\n        trigger: load\n        window: w\n        message: m\n",
			err:     errDiagnosticAssertHasWindow,
		},
		{
			name:    "print with location",
			content: "levels:\n  - name: a\n    diagnostics:\n      - kind: print\n        trigger: load\n        line: 3\n        message: m\n",
			err:     errDiagnosticPrintHasLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := writeFile(t, t.TempDir(), "levels.yaml", tt.content)

			_, err := NewLoader(quietLogger()).LoadLevels(p)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDiscoverSuites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "b/two.suite.yaml", "name: two\n")
	writeFile(t, dir, "a/one.suite.yaml", "name: one\n")
	writeFile(t, dir, "a/levels.yaml", "levels: []\n")

	found, err := NewLoader(quietLogger()).DiscoverSuites(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a", "one.suite.yaml"),
		filepath.Join(dir, "b", "two.suite.yaml"),
	}, found)
}
