package table

import (
	"fmt"

	"github.com/ethpandaops/scenecheck/internal/testing/format"
	"github.com/ethpandaops/scenecheck/internal/testing/metrics"
	"github.com/fatih/color"
)

// RunStatus is a run's final state as shown in tables.
type RunStatus int

// Run states.
const (
	StatusPass RunStatus = iota
	StatusFail
	StatusAbort
)

// StatusOf classifies a recorded run. An aborted run is reported as an abort
// even though it also failed.
func StatusOf(run metrics.RunMetric) RunStatus {
	switch {
	case run.Aborted:
		return StatusAbort
	case run.Passed:
		return StatusPass
	default:
		return StatusFail
	}
}

// Severity selects the highlight for a non-zero diagnostic count.
type Severity int

// Diagnostic severities.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// Palette colours run output. Colours are decided once, from color.NoColor
// at construction, so a table is never half coloured.
type Palette struct {
	enabled bool

	pass   *color.Color
	fail   *color.Color
	warn   *color.Color
	muted  *color.Color
	bold   *color.Color
	header *color.Color
}

// NewPalette creates a palette for the current terminal.
func NewPalette() *Palette {
	return &Palette{
		enabled: !color.NoColor,
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		muted:   color.New(color.FgHiBlack),
		bold:    color.New(color.Bold),
		header:  color.New(color.FgCyan, color.Bold),
	}
}

func (p *Palette) paint(c *color.Color, text string) string {
	if !p.enabled {
		return text
	}

	return c.Sprint(text)
}

// Pass colours text as passing.
func (p *Palette) Pass(text string) string { return p.paint(p.pass, text) }

// Fail colours text as failing.
func (p *Palette) Fail(text string) string { return p.paint(p.fail, text) }

// Muted greys out text.
func (p *Palette) Muted(text string) string { return p.paint(p.muted, text) }

// Bold emphasises text.
func (p *Palette) Bold(text string) string { return p.paint(p.bold, text) }

// Header styles a section title.
func (p *Palette) Header(text string) string { return p.paint(p.header, text) }

// Status renders a run state.
func (p *Palette) Status(s RunStatus) string {
	switch s {
	case StatusPass:
		return p.Pass("✓ PASS")
	case StatusAbort:
		return p.Fail("✗ ABORT")
	default:
		return p.Fail("✗ FAIL")
	}
}

// Outcomes renders passed/total for one run's ledger.
func (p *Palette) Outcomes(passed, total int) string {
	text := format.Ratio(passed, total)

	switch {
	case total == 0:
		return p.Muted(text)
	case passed == total:
		return p.Pass(text)
	case passed == 0:
		return p.Fail(text)
	default:
		return p.paint(p.warn, text)
	}
}

// DiagnosticCount renders how many host diagnostics a run raised. Zero is
// muted.
func (p *Palette) DiagnosticCount(n int, sev Severity) string {
	text := fmt.Sprintf("%d", n)

	switch {
	case n == 0:
		return p.Muted(text)
	case sev == SeverityWarning:
		return p.paint(p.warn, text)
	default:
		return p.Fail(text)
	}
}

// PassRate renders "passed (rate%)". Anything short of every run passing is
// a warning, and no passes at all is a failure.
func (p *Palette) PassRate(passed, total int) string {
	text := fmt.Sprintf("%d (%.1f%%)", passed, format.Percent(passed, total))

	switch {
	case total == 0:
		return p.Muted(text)
	case passed == total:
		return p.Pass(text)
	case passed == 0:
		return p.Fail(text)
	default:
		return p.paint(p.warn, text)
	}
}

// FailRate renders "failed (rate%)", red when any run failed.
func (p *Palette) FailRate(failed, total int) string {
	text := fmt.Sprintf("%d (%.1f%%)", failed, format.Percent(failed, total))
	if failed > 0 {
		return p.Fail(text)
	}

	return p.Pass(text)
}
