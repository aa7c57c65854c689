package report

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Routine is a test body. Returning an error (including an *AbortError)
// marks the run as failed with that error as its exception trace.
type Routine func(ctx context.Context, l *Ledger) error

// PanicError wraps a value recovered from a panicking routine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StackTrace returns the goroutine stack captured at recovery.
func (e *PanicError) StackTrace() string {
	return string(e.Stack)
}

// stackTracer is implemented by errors that carry their own trace text, such
// as script exceptions.
type stackTracer interface {
	StackTrace() string
}

// FormatTrace renders err for the EXCEPTION section of a report.
func FormatTrace(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		if stack := st.StackTrace(); stack != "" {
			return err.Error() + "\n" + stack
		}
	}

	return err.Error()
}

// Run executes routine against l, records any error or panic as the run's
// exception, renders the report and hands it to sink. Run is the only place
// an *AbortError is handled. The returned error reports a sink failure only;
// the verdict is in RunReport.Success.
func Run(ctx context.Context, l *Ledger, name string, routine Routine, sink Sink) (RunReport, error) {
	var (
		start = time.Now()
		log   = l.log.WithField("run", name)
	)

	routineErr := invoke(ctx, l, routine)
	if routineErr != nil {
		log.WithError(routineErr).Debug("routine raised")
		l.RecordException(FormatTrace(routineErr))
	}

	rep := l.Report(name)
	rep.RunID = uuid.NewString()
	rep.StartedAt = start
	rep.Duration = time.Since(start)
	rep.Aborted = errors.Is(routineErr, ErrAbort)

	log.WithFields(logrus.Fields{
		"run_id":   rep.RunID,
		"outcomes": len(rep.Outcomes),
		"passed":   rep.Passed(),
		"aborted":  rep.Aborted,
		"success":  rep.Success,
		"duration": rep.Duration,
	}).Info("run complete")

	if sink == nil {
		return rep, nil
	}

	if err := sink.Report(ctx, rep); err != nil {
		return rep, fmt.Errorf("reporting results for %s: %w", name, err)
	}

	return rep, nil
}

func invoke(ctx context.Context, l *Ledger, routine Routine) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return routine(ctx, l)
}
