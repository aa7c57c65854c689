package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	runLevels string
	runOutput string
	runName   string
)

var runCmd = &cobra.Command{
	Use:   "run <script.js>",
	Short: "Run a single test script",
	Long: `Run one JavaScript test script against a fresh simulated host and print its report.

Example:
  scenecheck run tests/physics/scripts/enter_game_mode.js --levels tests/physics/levels.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		orchestrator := newOrchestrator(cmd.OutOrStdout(), runOutput)

		if err := orchestrator.Start(ctx); err != nil {
			return fmt.Errorf("starting orchestrator: %w", err)
		}

		defer func() {
			if err := orchestrator.Stop(); err != nil {
				Logger.WithError(err).Warn("stopping orchestrator")
			}
		}()

		result, err := orchestrator.RunScript(ctx, args[0], runLevels, runName)
		if err != nil {
			return fmt.Errorf("running %s: %w", args[0], err)
		}

		if !result.Passed() {
			return ErrRunFailed
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runLevels, "levels", "", "Level definition file for the simulated host")
	runCmd.Flags().StringVar(&runOutput, "output", "", "Directory to write the YAML result document to")
	runCmd.Flags().StringVar(&runName, "name", "", "Run name used in the report (default: script path)")
}
