// Package output prints run progress, results and summaries for humans.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/format"
	"github.com/ethpandaops/scenecheck/internal/testing/metrics"
	"github.com/ethpandaops/scenecheck/internal/testing/table"
	"github.com/fatih/color"
)

// Formatter provides clean, human-friendly output
type Formatter interface {
	PrintPhase(phase string)
	PrintProgress(message string, duration time.Duration)
	PrintSuccess(message string)
	PrintError(message string, err error)
	PrintRunResults()
	PrintSummary()
}

type formatter struct {
	writer  io.Writer
	verbose bool

	metrics          metrics.Collector
	resultsFormatter *table.ResultsFormatter
	summaryFormatter *table.SummaryFormatter

	green *color.Color
	red   *color.Color
	blue  *color.Color
	gray  *color.Color
}

// NewFormatter creates a new output formatter
func NewFormatter(
	writer io.Writer,
	verbose bool,
	metricsCollector metrics.Collector,
	resultsFormatter *table.ResultsFormatter,
	summaryFormatter *table.SummaryFormatter,
) Formatter {
	return &formatter{
		writer:           writer,
		verbose:          verbose,
		metrics:          metricsCollector,
		resultsFormatter: resultsFormatter,
		summaryFormatter: summaryFormatter,
		green:            color.New(color.FgGreen),
		red:              color.New(color.FgRed),
		blue:             color.New(color.FgBlue),
		gray:             color.New(color.FgHiBlack),
	}
}

// PrintPhase prints phase separator
func (f *formatter) PrintPhase(phase string) {
	f.write(f.blue.Sprintf("\n▸ %s", phase) + "\n")
}

// PrintProgress prints a progress line, with timing when known. Progress is
// only shown in verbose mode.
func (f *formatter) PrintProgress(message string, duration time.Duration) {
	if !f.verbose {
		return
	}

	if duration > 0 {
		f.write(f.gray.Sprintf("%s (%s)", message, format.Duration(duration)) + "\n")
	} else {
		f.write(message + "\n")
	}
}

// PrintSuccess prints message in green
func (f *formatter) PrintSuccess(message string) {
	f.write(f.green.Sprint(message) + "\n")
}

// PrintError prints message and error details in red
func (f *formatter) PrintError(message string, err error) {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}

	f.write(f.red.Sprint(message) + "\n")
}

// PrintRunResults prints a table of run results
func (f *formatter) PrintRunResults() {
	f.write(f.resultsFormatter.Format(f.metrics.GetRunMetrics(), f.metrics.GetDiagnosticMetrics()) + "\n")
}

// PrintSummary prints a summary table with aggregate statistics
func (f *formatter) PrintSummary() {
	f.write(f.summaryFormatter.Format(f.metrics.GetSummary()) + "\n")
}

// write emits s with a single Write so lines from concurrent runs stay whole.
func (f *formatter) write(s string) {
	_, _ = io.WriteString(f.writer, s)
}
