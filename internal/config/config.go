// Package config handles configuration loading and management
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/testcfg"
	"github.com/joho/godotenv"
)

var errNotPositive = errors.New("must be positive")

// Config holds the application configuration
type Config struct {
	RunTimeout        time.Duration
	GameModeTimeout   time.Duration
	FrameInterval     time.Duration
	LevelSettleFrames int
	TransitionFrames  int
	Workers           int
	TestsDir          string
	OutputDir         string
	HostLog           bool
}

// Load reads configuration from environment variables and the .env file
func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile reads configuration from environment variables after loading
// envFile. A missing env file is not an error.
func LoadFile(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading %s file: %w", envFile, err)
		}
	}

	defaults := testcfg.DefaultTestConfig()

	cfg := &Config{
		TestsDir:  getEnv(envTestsDir, TestsDir),
		OutputDir: getEnv(envOutputDir, ""),
	}

	var err error

	if cfg.RunTimeout, err = getDuration(envRunTimeout, defaults.RunTimeout); err != nil {
		return nil, err
	}

	if cfg.GameModeTimeout, err = getDuration(envGameModeTimeout, defaults.GameModeTimeout); err != nil {
		return nil, err
	}

	if cfg.FrameInterval, err = getDuration(envFrameInterval, defaults.FrameInterval); err != nil {
		return nil, err
	}

	if cfg.LevelSettleFrames, err = getInt(envLevelSettleFrames, defaults.LevelSettleFrames); err != nil {
		return nil, err
	}

	if cfg.TransitionFrames, err = getInt(envTransitionFrames, defaults.TransitionFrames); err != nil {
		return nil, err
	}

	if cfg.Workers, err = getInt(envWorkers, defaults.Workers); err != nil {
		return nil, err
	}

	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("invalid %s: %w", envWorkers, errNotPositive)
	}

	if cfg.RunTimeout <= 0 {
		return nil, fmt.Errorf("invalid %s: %w", envRunTimeout, errNotPositive)
	}

	hostLog, err := strconv.ParseBool(getEnv(envHostLog, "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envHostLog, err)
	}
	cfg.HostLog = hostLog

	return cfg, nil
}

// TestConfig returns the run execution parameters.
func (c *Config) TestConfig() *testcfg.TestConfig {
	return &testcfg.TestConfig{
		RunTimeout:        c.RunTimeout,
		GameModeTimeout:   c.GameModeTimeout,
		FrameInterval:     c.FrameInterval,
		LevelSettleFrames: c.LevelSettleFrames,
		TransitionFrames:  c.TransitionFrames,
		Workers:           c.Workers,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key) //nolint:err113 // Key is part of the message
	}

	return n, nil
}

func (c *Config) String() string {
	outputDisplay := c.OutputDir
	if outputDisplay == "" {
		outputDisplay = "(not set)"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Run Timeout:          %s
Game Mode Timeout:    %s
Frame Interval:       %s
Level Settle Frames:  %d
Transition Frames:    %d
Workers:              %d
Tests Directory:      %s
Output Directory:     %s
Host Log:             %t`,
		c.RunTimeout,
		c.GameModeTimeout,
		c.FrameInterval,
		c.LevelSettleFrames,
		c.TransitionFrames,
		c.Workers,
		c.TestsDir,
		outputDisplay,
		c.HostLog,
	)
}
