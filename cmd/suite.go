package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/scenecheck/internal/testing/testdef"
	"github.com/spf13/cobra"
)

var (
	suiteWorkers int
	suiteOutput  string
)

var suiteCmd = &cobra.Command{
	Use:   "suite [suite.yaml|dir]",
	Short: "Run a test suite",
	Long: `Run every script in a suite file, up to --workers at a time, each against its own
simulated host. When the argument is a directory, or omitted, every *` + testdef.SuiteFileSuffix + ` file
below it (default: the configured tests directory) is run.

Example:
  scenecheck suite tests/physics/physics.suite.yaml --workers 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		target := appConfig.TestsDir
		if len(args) == 1 {
			target = args[0]
		}

		paths, err := suitePaths(target)
		if err != nil {
			return err
		}

		return RunSuites(ctx, cmd.OutOrStdout(), paths, suiteWorkers, suiteOutput)
	},
}

// suitePaths resolves target to suite files: a file is used as-is, a
// directory is searched.
func suitePaths(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}

	if !info.IsDir() {
		return []string{target}, nil
	}

	paths, err := testdef.NewLoader(Logger).DiscoverSuites(target)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no suites found in %s", target) //nolint:err113 // Include directory for context
	}

	return paths, nil
}

func init() {
	rootCmd.AddCommand(suiteCmd)

	suiteCmd.Flags().IntVar(&suiteWorkers, "workers", 0, "Number of runs in flight (default: SCENECHECK_WORKERS)")
	suiteCmd.Flags().StringVar(&suiteOutput, "output", "", "Directory to write YAML result documents to")
}
