// Package report accumulates pass/fail outcomes for a test run, supports
// critical checks that abort the run, and renders the final textual report.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethpandaops/scenecheck/internal/testing/typecheck"
	"github.com/sirupsen/logrus"
)

// ErrAbort is matched by every *AbortError.
var ErrAbort = errors.New("run aborted")

// AbortError is returned by a failed critical check. It must be propagated
// unchanged to the run boundary (Run), which is the only place that handles it.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	if e.Reason == "" {
		return ErrAbort.Error()
	}

	return fmt.Sprintf("%s: %s", ErrAbort.Error(), e.Reason)
}

// Is lets errors.Is(err, ErrAbort) match.
func (e *AbortError) Is(target error) bool {
	return target == ErrAbort
}

// Messages is the pair of messages recorded for a check, depending on its result.
type Messages struct {
	Success string
	Failure string
}

// Msgs builds a Messages pair.
func Msgs(success, failure string) Messages {
	return Messages{Success: success, Failure: failure}
}

// Outcome is one recorded result.
type Outcome struct {
	Success bool   `yaml:"success"`
	Message string `yaml:"message"`
}

// Terminator ends the current host session. It is called on the abort path.
type Terminator interface {
	Terminate(ctx context.Context) error
}

// Ledger is the ordered set of outcomes for one run. Use a fresh ledger per
// run, or Reset it in between.
type Ledger struct {
	log        logrus.FieldLogger
	terminator Terminator

	mu       sync.Mutex
	outcomes []Outcome
	trace    string
	hasTrace bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTerminator sets the collaborator used to close the session when a
// critical check fails.
func WithTerminator(t Terminator) Option {
	return func(l *Ledger) {
		l.terminator = t
	}
}

// NewLedger creates an empty ledger.
func NewLedger(log logrus.FieldLogger, opts ...Option) *Ledger {
	l := &Ledger{
		log:      log.WithField("component", "ledger"),
		outcomes: make([]Outcome, 0, 16),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Info writes an informational line to the log.
func (l *Ledger) Info(msg string) {
	l.log.Info(msg)
}

// Success records a passing outcome built from m.Success.
func (l *Ledger) Success(m Messages) {
	l.append(true, "Success: "+m.Success)
}

// Failure records a failing outcome built from m.Failure.
func (l *Ledger) Failure(m Messages) {
	l.append(false, "Failure: "+m.Failure)
}

// Result records m.Success or m.Failure depending on cond and returns cond.
func (l *Ledger) Result(m Messages, cond bool) bool {
	if cond {
		l.Success(m)
	} else {
		l.Failure(m)
	}

	return cond
}

// ResultValue is Result for conditions that are not statically typed. A value
// that is not a bool records nothing and returns a *typecheck.TypeConstraintError.
func (l *Ledger) ResultValue(m Messages, v any) (bool, error) {
	cond, err := typecheck.Bool("condition argument", v)
	if err != nil {
		return false, err
	}

	return l.Result(m, cond), nil
}

// Critical records the result like Result. When cond is false it fails fast:
// the session is terminated and an *AbortError is returned, which the caller
// must return as-is.
func (l *Ledger) Critical(ctx context.Context, m Messages, cond bool, abortMessage string) error {
	if l.Result(m, cond) {
		return nil
	}

	return l.FailFast(ctx, abortMessage)
}

// CriticalValue is Critical for conditions that are not statically typed.
func (l *Ledger) CriticalValue(ctx context.Context, m Messages, v any, abortMessage string) error {
	cond, err := typecheck.Bool("condition argument", v)
	if err != nil {
		return err
	}

	return l.Critical(ctx, m, cond, abortMessage)
}

// FailFast terminates the session and returns the abort signal.
func (l *Ledger) FailFast(ctx context.Context, message string) error {
	l.log.Info("Failing fast. Raising an exception and shutting down the session.")

	if message != "" {
		l.log.Infof("Fail fast message: %s", message)
	}

	if l.terminator != nil {
		if err := l.terminator.Terminate(ctx); err != nil {
			l.log.WithError(err).Warn("failed to terminate session")
		}
	}

	return &AbortError{Reason: message}
}

// RecordException stores the trace of an uncaught failure. Only the first
// trace of a run is kept.
func (l *Ledger) RecordException(trace string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasTrace {
		l.log.WithField("trace", trace).Debug("dropping additional exception trace")
		return
	}

	l.trace = trace
	l.hasTrace = true
}

// Trace returns the recorded exception trace, if any.
func (l *Ledger) Trace() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.trace, l.hasTrace
}

// Outcomes returns a copy of the recorded outcomes in insertion order.
func (l *Ledger) Outcomes() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Outcome, len(l.outcomes))
	copy(out, l.outcomes)

	return out
}

// Verdict is true when every outcome passed and no exception was recorded.
// An empty ledger passes.
func (l *Ledger) Verdict() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return verdict(l.outcomes, l.hasTrace)
}

// Reset clears outcomes and the recorded trace.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.outcomes = l.outcomes[:0]
	l.trace = ""
	l.hasTrace = false
}

func (l *Ledger) append(success bool, message string) {
	l.log.Info(message)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.outcomes = append(l.outcomes, Outcome{Success: success, Message: message})
}

func verdict(outcomes []Outcome, hasTrace bool) bool {
	if hasTrace {
		return false
	}

	for _, o := range outcomes {
		if !o.Success {
			return false
		}
	}

	return true
}
