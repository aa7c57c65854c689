// Package metrics provides run metrics collection and aggregation.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RunMetric captures the outcome of one script run.
type RunMetric struct {
	Name           string
	RunID          string
	Passed         bool
	Aborted        bool
	Duration       time.Duration
	OutcomesTotal  int
	OutcomesPassed int
	ErrorMessage   string // first line of the exception trace, empty if none
	FailedOutcomes []string
	Timestamp      time.Time
}

// OutcomesFailed is the number of failing outcomes.
func (m *RunMetric) OutcomesFailed() int {
	return m.OutcomesTotal - m.OutcomesPassed
}

// DiagnosticMetric counts the host diagnostics raised during a run.
type DiagnosticMetric struct {
	Run      string
	Warnings int
	Errors   int
	Asserts  int
	Prints   int
}

// SummaryMetric provides aggregate statistics across all runs
type SummaryMetric struct {
	TotalDuration time.Duration
	TotalRuns     int
	PassedRuns    int
	FailedRuns    int
	AbortedRuns   int
	Warnings      int
	Errors        int
	Asserts       int
}

// Collector interface for metrics collection
type Collector interface {
	Start(ctx context.Context) error
	Stop() error
	RecordRun(metric *RunMetric)
	RecordDiagnostics(metric DiagnosticMetric)
	GetRunMetrics() []RunMetric
	GetDiagnosticMetrics() []DiagnosticMetric
	GetSummary() SummaryMetric
}

// collector implements Collector interface
type collector struct {
	log               logrus.FieldLogger
	mu                sync.RWMutex
	runMetrics        []RunMetric
	diagnosticMetrics []DiagnosticMetric
	startTime         time.Time
}

// NewCollector creates a new metrics collector
func NewCollector(log logrus.FieldLogger) Collector {
	return &collector{
		log:               log.WithField("component", "metrics_collector"),
		runMetrics:        make([]RunMetric, 0, 16),
		diagnosticMetrics: make([]DiagnosticMetric, 0, 16),
	}
}

func (c *collector) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()

	c.log.Debug("metrics collector started")

	return nil
}

func (c *collector) Stop() error {
	c.log.Debug("metrics collector stopped")

	return nil
}

func (c *collector) RecordRun(metric *RunMetric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runMetrics = append(c.runMetrics, *metric)
}

func (c *collector) RecordDiagnostics(metric DiagnosticMetric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnosticMetrics = append(c.diagnosticMetrics, metric)
}

func (c *collector) GetRunMetrics() []RunMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	// Return copy to avoid race conditions
	result := make([]RunMetric, len(c.runMetrics))
	copy(result, c.runMetrics)
	return result
}

func (c *collector) GetDiagnosticMetrics() []DiagnosticMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]DiagnosticMetric, len(c.diagnosticMetrics))
	copy(result, c.diagnosticMetrics)
	return result
}

func (c *collector) GetSummary() SummaryMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := SummaryMetric{
		TotalRuns: len(c.runMetrics),
	}

	if !c.startTime.IsZero() {
		summary.TotalDuration = time.Since(c.startTime)
	}

	for _, rm := range c.runMetrics {
		if rm.Passed {
			summary.PassedRuns++
		} else {
			summary.FailedRuns++
		}

		if rm.Aborted {
			summary.AbortedRuns++
		}
	}

	for _, dm := range c.diagnosticMetrics {
		summary.Warnings += dm.Warnings
		summary.Errors += dm.Errors
		summary.Asserts += dm.Asserts
	}

	return summary
}

// Compile-time interface compliance check
var _ Collector = (*collector)(nil)
