package table

import (
	"fmt"

	"github.com/ethpandaops/scenecheck/internal/testing/format"
	"github.com/ethpandaops/scenecheck/internal/testing/metrics"
	"github.com/sirupsen/logrus"
)

// SummaryFormatter formats aggregate run statistics as a key/value table.
type SummaryFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	palette  *Palette
}

// NewSummaryFormatter creates a new summary table formatter.
func NewSummaryFormatter(log logrus.FieldLogger, renderer Renderer) *SummaryFormatter {
	return &SummaryFormatter{
		log:      log.WithField("component", "summary_formatter"),
		renderer: renderer,
		palette:  NewPalette(),
	}
}

// Format renders the summary without an outer border, values right aligned.
func (f *SummaryFormatter) Format(summary metrics.SummaryMetric) string {
	rows := [][]string{
		{"Total Runs", f.palette.Bold(fmt.Sprintf("%d", summary.TotalRuns))},
		{"Passed", f.palette.PassRate(summary.PassedRuns, summary.TotalRuns)},
		{"Failed", f.palette.FailRate(summary.FailedRuns, summary.TotalRuns)},
		{"Aborted", f.palette.DiagnosticCount(summary.AbortedRuns, SeverityError)},
		{"Warnings", f.palette.DiagnosticCount(summary.Warnings, SeverityWarning)},
		{"Errors", f.palette.DiagnosticCount(summary.Errors, SeverityError)},
		{"Asserts", f.palette.DiagnosticCount(summary.Asserts, SeverityError)},
		{"Total Duration", format.Duration(summary.TotalDuration)},
	}

	return "\n" + f.palette.Header("▸ Summary") + "\n\n" +
		f.renderer.RenderToString(
			[]string{"Metric", "Value"},
			rows,
			WithColumnAlignment(AlignLeft, AlignRight),
			WithBorder(false),
		)
}
