package config

const (
	// TestsDir is the default directory suites are discovered in.
	TestsDir = "tests"
	// ResultsDir is the default directory result documents are written to.
	ResultsDir = "results"
	// DefaultEnvFile is the env file loaded when none is given.
	DefaultEnvFile = ".env"

	envRunTimeout        = "SCENECHECK_RUN_TIMEOUT"
	envGameModeTimeout   = "SCENECHECK_GAME_MODE_TIMEOUT"
	envFrameInterval     = "SCENECHECK_FRAME_INTERVAL"
	envLevelSettleFrames = "SCENECHECK_LEVEL_SETTLE_FRAMES"
	envTransitionFrames  = "SCENECHECK_TRANSITION_FRAMES"
	envWorkers           = "SCENECHECK_WORKERS"
	envTestsDir          = "SCENECHECK_TESTS_DIR"
	envOutputDir         = "SCENECHECK_OUTPUT_DIR"
	envHostLog           = "SCENECHECK_HOST_LOG"
)
