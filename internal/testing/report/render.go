package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// VerdictSuccess is the literal rendered for a passing run.
	VerdictSuccess = "SUCCESS"
	// VerdictFailure is the literal rendered for a failing run.
	VerdictFailure = "FAILURE"

	verdictPrefix = "Test result:"
)

// ErrNoVerdict is returned by ParseVerdict when the text carries no verdict line.
var ErrNoVerdict = errors.New("report has no verdict line")

// RunReport is the rendered state of a ledger at the end of a run.
type RunReport struct {
	RunID     string
	Name      string
	Outcomes  []Outcome
	Trace     string
	HasTrace  bool
	Aborted   bool
	Success   bool
	Text      string
	StartedAt time.Time
	Duration  time.Duration
}

// Passed returns the number of passing outcomes.
func (r *RunReport) Passed() int {
	n := 0

	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}

	return n
}

// Report snapshots the ledger into a RunReport named name.
func (l *Ledger) Report(name string) RunReport {
	l.mu.Lock()
	outcomes := make([]Outcome, len(l.outcomes))
	copy(outcomes, l.outcomes)
	trace, hasTrace := l.trace, l.hasTrace
	l.mu.Unlock()

	return RunReport{
		Name:     name,
		Outcomes: outcomes,
		Trace:    trace,
		HasTrace: hasTrace,
		Success:  verdict(outcomes, hasTrace),
		Text:     render(name, outcomes, trace, hasTrace),
	}
}

// Render returns the textual report for the ledger's current state.
func (l *Ledger) Render(name string) string {
	r := l.Report(name)

	return r.Text
}

func render(name string, outcomes []Outcome, trace string, hasTrace bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Report for %s:\n", name)

	for _, o := range outcomes {
		if o.Success {
			fmt.Fprintf(&b, "[SUCCESS] %s\n", o.Message)
		} else {
			fmt.Fprintf(&b, "[FAILED ] %s\n", o.Message)
		}
	}

	if hasTrace {
		indented := strings.ReplaceAll(strings.TrimSuffix(trace, "\n"), "\n", "\n  ")
		fmt.Fprintf(&b, "EXCEPTION raised:\n  %s\n", indented)
	}

	b.WriteString(verdictPrefix + "  ")

	if verdict(outcomes, hasTrace) {
		b.WriteString(VerdictSuccess)
	} else {
		b.WriteString(VerdictFailure)
	}

	return b.String()
}

// ParseVerdict reads the verdict literal back out of a rendered report.
func ParseVerdict(text string) (bool, error) {
	lines := strings.Split(text, "\n")

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, verdictPrefix) {
			continue
		}

		switch strings.TrimSpace(strings.TrimPrefix(line, verdictPrefix)) {
		case VerdictSuccess:
			return true, nil
		case VerdictFailure:
			return false, nil
		default:
			return false, fmt.Errorf("unrecognised verdict line %q", line)
		}
	}

	return false, ErrNoVerdict
}
