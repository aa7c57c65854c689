package table

import (
	"io"
	"testing"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/metrics"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestRenderer() (logrus.FieldLogger, Renderer) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log, NewRenderer(log)
}

func TestResultsFormatter_Format(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	log, renderer := newTestRenderer()
	f := NewResultsFormatter(log, renderer)

	out := f.Format([]metrics.RunMetric{
		{Name: "physics_enter_game_mode", Passed: true, OutcomesTotal: 2, OutcomesPassed: 2, Duration: 250 * time.Millisecond},
		{
			Name:           "physics_tracer",
			Aborted:        true,
			OutcomesTotal:  2,
			OutcomesPassed: 1,
			ErrorMessage:   "run aborted: level did not load",
			FailedOutcomes: []string{"Failure: level not loaded"},
			Duration:       time.Second,
		},
	}, []metrics.DiagnosticMetric{
		{Run: "physics_tracer", Warnings: 3},
	})

	assert.Contains(t, out, "▸ Run Results")
	assert.Contains(t, out, "physics_enter_game_mode")
	assert.Contains(t, out, "✓ PASS")
	assert.Contains(t, out, "✗ ABORT")
	assert.Contains(t, out, "1/2 failed")
	assert.Contains(t, out, "▸ Failed Run Details")
	assert.Contains(t, out, "✗ Failure: level not loaded")
	assert.Contains(t, out, "Exception: run aborted: level did not load")
	assert.NotContains(t, out, "no details available")
}

func TestResultsFormatter_NoRuns(t *testing.T) {
	log, renderer := newTestRenderer()

	assert.Equal(t, "No runs executed", NewResultsFormatter(log, renderer).Format(nil, nil))
}

func TestSummaryFormatter_Format(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	log, renderer := newTestRenderer()
	f := NewSummaryFormatter(log, renderer)

	out := f.Format(metrics.SummaryMetric{
		TotalRuns:   4,
		PassedRuns:  3,
		FailedRuns:  1,
		AbortedRuns: 1,
		Warnings:    2,
	})

	assert.Contains(t, out, "▸ Summary")
	assert.Contains(t, out, "3 (75.0%)")
	assert.Contains(t, out, "1 (25.0%)")
	assert.Contains(t, out, "Total Runs")
}
