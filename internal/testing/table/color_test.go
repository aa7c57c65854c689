package table

import (
	"testing"

	"github.com/ethpandaops/scenecheck/internal/testing/metrics"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		run  metrics.RunMetric
		want RunStatus
	}{
		{name: "passed", run: metrics.RunMetric{Passed: true}, want: StatusPass},
		{name: "failed", run: metrics.RunMetric{}, want: StatusFail},
		{name: "aborted wins over failed", run: metrics.RunMetric{Aborted: true}, want: StatusAbort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.run))
		})
	}
}

func TestPalette_Status(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	p := NewPalette()

	assert.Equal(t, "✓ PASS", p.Status(StatusPass))
	assert.Equal(t, "✗ FAIL", p.Status(StatusFail))
	assert.Equal(t, "✗ ABORT", p.Status(StatusAbort))
}

func TestPalette_Rates(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	p := NewPalette()

	tests := []struct {
		name   string
		passed int
		total  int
		pass   string
		fail   string
	}{
		{name: "every run passed", passed: 4, total: 4, pass: "4 (100.0%)", fail: "0 (0.0%)"},
		{name: "some runs failed", passed: 3, total: 4, pass: "3 (75.0%)", fail: "1 (25.0%)"},
		{name: "no runs passed", passed: 0, total: 2, pass: "0 (0.0%)", fail: "2 (100.0%)"},
		{name: "no runs", passed: 0, total: 0, pass: "0 (0.0%)", fail: "0 (0.0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pass, p.PassRate(tt.passed, tt.total))
			assert.Equal(t, tt.fail, p.FailRate(tt.total-tt.passed, tt.total))
		})
	}
}

func TestPalette_OutcomesAndCounts(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	p := NewPalette()

	assert.Equal(t, "3/5", p.Outcomes(3, 5))
	assert.Equal(t, "0/0", p.Outcomes(0, 0))
	assert.Equal(t, "0", p.DiagnosticCount(0, SeverityError))
	assert.Equal(t, "7", p.DiagnosticCount(7, SeverityWarning))
}

func TestPalette_ColoursFollowTerminal(t *testing.T) {
	color.NoColor = true
	plain := NewPalette()
	color.NoColor = false
	coloured := NewPalette()

	assert.False(t, plain.enabled)
	assert.Equal(t, "✗ ABORT", plain.Status(StatusAbort))

	// A zero count stays muted whatever its severity.
	assert.Equal(t, coloured.Muted("0"), coloured.DiagnosticCount(0, SeverityError))
	assert.NotEqual(t, "2", coloured.DiagnosticCount(2, SeverityError))
	assert.Contains(t, coloured.DiagnosticCount(2, SeverityError), "2")
	assert.NotEqual(t, coloured.DiagnosticCount(2, SeverityWarning), coloured.DiagnosticCount(2, SeverityError))
}
