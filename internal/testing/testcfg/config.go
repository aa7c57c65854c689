// Package testcfg provides test execution configuration.
// This package defines operational parameters for how runs execute
// (timeouts, frame pacing, worker counts) rather than what runs to execute.
package testcfg

import "time"

// TestConfig holds run execution operational parameters.
// This configures how runs execute rather than which scripts run
// (see testdef.Suite).
type TestConfig struct {
	// Execution timeouts
	RunTimeout      time.Duration
	GameModeTimeout time.Duration

	// Host frame pacing
	FrameInterval     time.Duration
	LevelSettleFrames int
	TransitionFrames  int

	// Suite execution
	Workers int
}

// DefaultTestConfig returns a TestConfig with default values for all run execution parameters.
func DefaultTestConfig() *TestConfig {
	return &TestConfig{
		// Execution timeouts
		RunTimeout:      5 * time.Minute,
		GameModeTimeout: 1 * time.Second,

		// Host frame pacing
		FrameInterval:     time.Millisecond,
		LevelSettleFrames: 200,
		TransitionFrames:  3,

		// Suite execution
		Workers: 4,
	}
}
