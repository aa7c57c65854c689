package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethpandaops/scenecheck/internal/testing"
	"github.com/ethpandaops/scenecheck/internal/testing/metrics"
	"github.com/ethpandaops/scenecheck/internal/testing/testdef"
)

// newOrchestrator builds an orchestrator from the loaded configuration.
// outputDir overrides the configured result directory when set.
func newOrchestrator(out io.Writer, outputDir string) *testing.Orchestrator {
	if outputDir == "" {
		outputDir = appConfig.OutputDir
	}

	var hostOutput io.Writer
	if appConfig.HostLog {
		hostOutput = os.Stderr
	}

	return testing.NewOrchestrator(&testing.OrchestratorConfig{
		Logger:           Logger,
		Verbose:          verbose,
		Writer:           out,
		MetricsCollector: metrics.NewCollector(Logger),
		ConfigLoader:     testdef.NewLoader(Logger),
		TestConfig:       appConfig.TestConfig(),
		OutputDir:        outputDir,
		HostOutput:       hostOutput,
	})
}

// DiscoverSuites lists the suite files under the configured tests directory.
func DiscoverSuites() ([]string, error) {
	return testdef.NewLoader(Logger).DiscoverSuites(appConfig.TestsDir)
}

// RunSuites runs each suite in turn. It returns ErrRunFailed when any run
// failed; other errors stop before the remaining suites.
func RunSuites(ctx context.Context, out io.Writer, paths []string, workers int, outputDir string) error {
	orchestrator := newOrchestrator(out, outputDir)

	if err := orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("starting orchestrator: %w", err)
	}

	defer func() {
		if err := orchestrator.Stop(); err != nil {
			Logger.WithError(err).Warn("stopping orchestrator")
		}
	}()

	passed := true

	for _, path := range paths {
		results, err := orchestrator.RunSuite(ctx, path, workers)
		if err != nil {
			return fmt.Errorf("running suite %s: %w", path, err)
		}

		if !testing.AllPassed(results) {
			passed = false
		}
	}

	if !passed {
		return ErrRunFailed
	}

	return nil
}
