// Package cmd contains CLI command definitions
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethpandaops/scenecheck/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ErrRunFailed is returned when at least one run's verdict is FAILURE.
var ErrRunFailed = errors.New("one or more runs failed")

var (
	// Logger is the shared logger instance for all commands
	Logger *logrus.Logger

	appConfig *config.Config

	envFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "scenecheck",
		Short: "scenecheck - scripted scene test harness",
		Long: `scenecheck runs JavaScript test scripts against a simulated editor host and
reports a SUCCESS or FAILURE verdict for each run.

Run without arguments to launch interactive mode, or use subcommands for direct operations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return Setup(envFile, verbose)
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Setup loads configuration from envFile and the environment and initializes
// the shared logger. An empty envFile uses the default .env file.
func Setup(file string, verboseLogging bool) error {
	if file == "" {
		file = config.DefaultEnvFile
	}

	cfg, err := config.LoadFile(file)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	appConfig = cfg
	Logger = newLogger(os.Getenv("LOG_LEVEL"), verboseLogging)

	return nil
}

// Config returns the configuration loaded by Setup.
func Config() *config.Config {
	return appConfig
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Environment file to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}
