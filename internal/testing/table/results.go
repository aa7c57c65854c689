package table

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/scenecheck/internal/testing/format"
	"github.com/ethpandaops/scenecheck/internal/testing/metrics"
	"github.com/sirupsen/logrus"
)

const maxDetailLength = 50

// Run, Status, Outcomes, Warnings, Errors, Asserts, Duration, Details.
var resultColumns = []Alignment{
	AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft,
}

// ResultsFormatter formats run results as a table.
type ResultsFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	palette  *Palette
}

// NewResultsFormatter creates a new results table formatter.
func NewResultsFormatter(log logrus.FieldLogger, renderer Renderer) *ResultsFormatter {
	return &ResultsFormatter{
		log:      log.WithField("component", "results_formatter"),
		renderer: renderer,
		palette:  NewPalette(),
	}
}

// Format converts run metrics into a table, followed by a details table
// for every failed run. Diagnostics are matched to runs by name.
func (f *ResultsFormatter) Format(runs []metrics.RunMetric, diagnostics []metrics.DiagnosticMetric) string {
	if len(runs) == 0 {
		return "No runs executed"
	}

	var (
		headers = []string{"Run", "Status", "Outcomes", "Warnings", "Errors", "Asserts", "Duration", "Details"}
		rows    = make([][]string, 0, len(runs))
		failed  = make([]metrics.RunMetric, 0)
		byRun   = make(map[string]metrics.DiagnosticMetric, len(diagnostics))
	)

	for _, d := range diagnostics {
		byRun[d.Run] = d
	}

	for _, run := range runs {
		if !run.Passed {
			failed = append(failed, run)
		}

		diag := byRun[run.Name]

		rows = append(rows, []string{
			run.Name,
			f.palette.Status(StatusOf(run)),
			f.palette.Outcomes(run.OutcomesPassed, run.OutcomesTotal),
			f.palette.DiagnosticCount(diag.Warnings, SeverityWarning),
			f.palette.DiagnosticCount(diag.Errors, SeverityError),
			f.palette.DiagnosticCount(diag.Asserts, SeverityError),
			format.Duration(run.Duration),
			f.detail(run),
		})
	}

	f.log.WithFields(logrus.Fields{
		"runs":   len(runs),
		"failed": len(failed),
	}).Debug("formatting run results")

	output := "\n" + f.palette.Header("▸ Run Results") + "\n\n" +
		f.renderer.RenderToString(headers, rows, WithColumnAlignment(resultColumns...))

	if len(failed) > 0 {
		output += f.formatFailureDetails(failed)
	}

	return output
}

// detail is the one-line reason shown next to a failed run.
func (f *ResultsFormatter) detail(run metrics.RunMetric) string {
	if run.Passed {
		return ""
	}

	var parts []string

	if n := run.OutcomesFailed(); n > 0 {
		parts = append(parts, f.palette.Fail(fmt.Sprintf("%d/%d failed", n, run.OutcomesTotal)))
	}

	if run.ErrorMessage != "" {
		parts = append(parts, f.palette.Muted(format.Truncate(run.ErrorMessage, maxDetailLength)))
	}

	return strings.Join(parts, " - ")
}

// formatFailureDetails lists the failed outcomes and exception of each
// failed run, one multi-line row per run.
func (f *ResultsFormatter) formatFailureDetails(failed []metrics.RunMetric) string {
	rows := make([][]string, 0, len(failed))

	for _, run := range failed {
		lines := make([]string, 0, len(run.FailedOutcomes)+1)

		for _, outcome := range run.FailedOutcomes {
			lines = append(lines, f.palette.Fail("✗")+" "+outcome)
		}

		if run.ErrorMessage != "" {
			lines = append(lines, f.palette.Fail("Exception")+": "+run.ErrorMessage)
		}

		if len(lines) == 0 {
			lines = append(lines, f.palette.Fail("Error")+": Run failed (no details available)")
		}

		rows = append(rows, []string{
			run.Name,
			format.Duration(run.Duration),
			strings.Join(lines, "\n"),
		})
	}

	return "\n" + f.palette.Header("▸ Failed Run Details") + "\n\n" +
		f.renderer.RenderToString(
			[]string{"Run", "Duration", "Failures"},
			rows,
			WithColumnAlignment(AlignLeft, AlignRight, AlignLeft),
			WithRowSeparator(true),
		)
}
