// Package testing provides end-to-end run orchestration: each script runs
// against its own simulated host, ledger and script console.
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethpandaops/scenecheck/internal/host"
	"github.com/ethpandaops/scenecheck/internal/testing/console"
	"github.com/ethpandaops/scenecheck/internal/testing/helper"
	"github.com/ethpandaops/scenecheck/internal/testing/metrics"
	"github.com/ethpandaops/scenecheck/internal/testing/output"
	"github.com/ethpandaops/scenecheck/internal/testing/poll"
	"github.com/ethpandaops/scenecheck/internal/testing/report"
	"github.com/ethpandaops/scenecheck/internal/testing/table"
	"github.com/ethpandaops/scenecheck/internal/testing/testcfg"
	"github.com/ethpandaops/scenecheck/internal/testing/testdef"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RunResult contains the results of a single script run.
type RunResult struct {
	Name        string
	Script      string
	Report      report.RunReport
	Diagnostics metrics.DiagnosticMetric
	// Error is set when the run's report could not be delivered.
	Error error
}

// Passed reports whether the run's verdict is SUCCESS.
func (r *RunResult) Passed() bool {
	return r.Error == nil && r.Report.Success
}

// AllPassed reports whether every run passed. An empty list passes.
func AllPassed(results []*RunResult) bool {
	return countFailed(results) == 0
}

func countFailed(results []*RunResult) int {
	failed := 0

	for _, r := range results {
		if r == nil || !r.Passed() {
			failed++
		}
	}

	return failed
}

// OrchestratorConfig contains configuration for run orchestration.
type OrchestratorConfig struct {
	Logger           logrus.FieldLogger
	Verbose          bool
	Writer           io.Writer
	MetricsCollector metrics.Collector
	ConfigLoader     testdef.Loader
	TestConfig       *testcfg.TestConfig
	// OutputDir, when set, receives one YAML result document per run.
	OutputDir string
	// HostOutput receives the simulated hosts' log lines. Nil discards them.
	HostOutput io.Writer
}

// Orchestrator coordinates script runs.
type Orchestrator struct {
	log          logrus.FieldLogger
	configLoader testdef.Loader
	testConfig   *testcfg.TestConfig
	metrics      metrics.Collector
	renderer     table.Renderer
	formatter    output.Formatter
	sink         report.Sink
	hostOutput   io.Writer
}

// NewOrchestrator creates a new run orchestrator.
func NewOrchestrator(cfg *OrchestratorConfig) *Orchestrator {
	var writer io.Writer = os.Stdout
	if cfg.Writer != nil {
		writer = cfg.Writer
	}

	// Reports and progress lines from concurrent runs share one writer.
	writer = output.NewSyncWriter(writer)

	testConfig := cfg.TestConfig
	if testConfig == nil {
		testConfig = testcfg.DefaultTestConfig()
	}

	renderer := table.NewRenderer(cfg.Logger)

	sinks := []report.Sink{report.NewWriterSink(writer)}
	if cfg.OutputDir != "" {
		sinks = append(sinks, report.NewFileSink(cfg.Logger, cfg.OutputDir))
	}

	return &Orchestrator{
		log:          cfg.Logger.WithField("component", "run_orchestrator"),
		configLoader: cfg.ConfigLoader,
		testConfig:   testConfig,
		metrics:      cfg.MetricsCollector,
		renderer:     renderer,
		formatter: output.NewFormatter(
			writer,
			cfg.Verbose,
			cfg.MetricsCollector,
			table.NewResultsFormatter(cfg.Logger, renderer),
			table.NewSummaryFormatter(cfg.Logger, renderer),
		),
		sink:       report.MultiSink(sinks...),
		hostOutput: cfg.HostOutput,
	}
}

// Start initializes the orchestrator and all its components.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.log.Debug("starting run orchestrator")

	if err := o.metrics.Start(ctx); err != nil {
		return fmt.Errorf("starting metrics collector: %w", err)
	}

	if err := o.renderer.Start(ctx); err != nil {
		return fmt.Errorf("starting table renderer: %w", err)
	}

	return nil
}

// Stop releases orchestrator resources.
func (o *Orchestrator) Stop() error {
	o.log.Debug("stopping run orchestrator")

	var errs []error

	if err := o.renderer.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping table renderer: %w", err))
	}

	if err := o.metrics.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping metrics collector: %w", err))
	}

	return errors.Join(errs...)
}

// RunScript runs a single script. levelsPath may be empty, in which case the
// host has no levels to open. name defaults to the script path.
func (o *Orchestrator) RunScript(ctx context.Context, scriptPath, levelsPath, name string) (*RunResult, error) {
	levels, err := o.loadLevels(levelsPath)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = scriptPath
	}

	result := o.run(ctx, name, scriptPath, levels, o.testConfig.RunTimeout)
	if result.Error != nil {
		return result, result.Error
	}

	return result, nil
}

// RunSuite runs every test of a suite file with up to workers runs in
// flight. A worker count of zero or less uses the configured default. The
// results table and summary are printed once every run has finished.
func (o *Orchestrator) RunSuite(ctx context.Context, suitePath string, workers int) ([]*RunResult, error) {
	suite, err := o.configLoader.LoadSuite(suitePath)
	if err != nil {
		return nil, fmt.Errorf("loading suite: %w", err)
	}

	levels, err := o.loadLevels(suite.LevelsPath())
	if err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = o.testConfig.Workers
	}

	if workers <= 0 {
		workers = 1
	}

	start := time.Now()

	o.log.WithFields(logrus.Fields{
		"suite":   suite.Name,
		"tests":   len(suite.Tests),
		"workers": workers,
	}).Info("running suite")

	o.formatter.PrintPhase(fmt.Sprintf("Running suite %s (%d tests)", suite.Name, len(suite.Tests)))

	results := make([]*RunResult, len(suite.Tests))
	g, gCtx := errgroup.WithContext(ctx)

	sem := make(chan struct{}, workers)
	for i, test := range suite.Tests {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gCtx.Done():
				return gCtx.Err()
			}

			timeout := test.Timeout
			if timeout == 0 {
				timeout = o.testConfig.RunTimeout
			}

			results[i] = o.run(gCtx, test.Name, suite.ScriptPath(test), levels, timeout)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.formatter.PrintError(fmt.Sprintf("Suite %s interrupted", suite.Name), err)

		return results, fmt.Errorf("running suite %s: %w", suite.Name, err)
	}

	o.log.WithFields(logrus.Fields{
		"suite":    suite.Name,
		"runs":     len(results),
		"passed":   AllPassed(results),
		"duration": time.Since(start),
	}).Info("suite complete")

	o.formatter.PrintRunResults()
	o.formatter.PrintSummary()

	if failed := countFailed(results); failed > 0 {
		o.formatter.PrintError(fmt.Sprintf("Suite %s: %d of %d runs failed", suite.Name, failed, len(results)), nil)
	} else {
		o.formatter.PrintSuccess(fmt.Sprintf("Suite %s: all %d runs passed", suite.Name, len(results)))
	}

	return results, nil
}

func (o *Orchestrator) loadLevels(path string) (*testdef.LevelSet, error) {
	if path == "" {
		return &testdef.LevelSet{}, nil
	}

	levels, err := o.configLoader.LoadLevels(path)
	if err != nil {
		return nil, fmt.Errorf("loading levels: %w", err)
	}

	return levels, nil
}

// run executes one script against a fresh host, ledger and console.
func (o *Orchestrator) run(ctx context.Context, name, scriptPath string, levels *testdef.LevelSet, timeout time.Duration) *RunResult {
	log := o.log.WithField("run", name)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	h := host.New(log, levels, host.Config{
		FrameInterval:    o.testConfig.FrameInterval,
		TransitionFrames: o.testConfig.TransitionFrames,
		Output:           o.hostOutput,
	})

	counter := metrics.NewDiagnosticCounter(name)
	if err := h.Subscribe(counter); err != nil {
		log.WithError(err).Warn("couldn't count diagnostics")
	}

	ledger := report.NewLedger(log, report.WithTerminator(h))
	poller := poll.NewPoller(log, h)
	hp := helper.New(log, h, h, poller, ledger, helper.Config{
		LevelSettleFrames: o.testConfig.LevelSettleFrames,
		GameModeTimeout:   o.testConfig.GameModeTimeout,
	})
	engine := console.NewEngine(log, hp, h, h)

	rep, sinkErr := report.Run(runCtx, ledger, name, func(ctx context.Context, _ *report.Ledger) error {
		return engine.RunFile(ctx, scriptPath)
	}, o.sink)

	if !h.Terminated() {
		if err := h.Terminate(ctx); err != nil {
			log.WithError(err).Debug("terminating host")
		}
	}

	result := &RunResult{
		Name:        name,
		Script:      scriptPath,
		Report:      rep,
		Diagnostics: counter.Metric(),
		Error:       sinkErr,
	}

	o.record(result)
	o.formatter.PrintProgress(fmt.Sprintf("%s finished: %s", name, verdictText(rep.Success)), rep.Duration)

	return result
}

func (o *Orchestrator) record(result *RunResult) {
	rep := result.Report

	metric := &metrics.RunMetric{
		Name:           result.Name,
		RunID:          rep.RunID,
		Passed:         result.Passed(),
		Aborted:        rep.Aborted,
		Duration:       rep.Duration,
		OutcomesTotal:  len(rep.Outcomes),
		OutcomesPassed: rep.Passed(),
		Timestamp:      rep.StartedAt,
	}

	if rep.HasTrace {
		metric.ErrorMessage, _, _ = strings.Cut(rep.Trace, "\n")
	} else if result.Error != nil {
		metric.ErrorMessage = result.Error.Error()
	}

	for _, outcome := range rep.Outcomes {
		if !outcome.Success {
			metric.FailedOutcomes = append(metric.FailedOutcomes, outcome.Message)
		}
	}

	o.metrics.RecordRun(metric)
	o.metrics.RecordDiagnostics(result.Diagnostics)
}

func verdictText(success bool) string {
	if success {
		return report.VerdictSuccess
	}

	return report.VerdictFailure
}
