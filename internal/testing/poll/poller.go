// Package poll provides a timeout-bounded condition wait that yields one
// cooperative host step per iteration.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/typecheck"
	"github.com/sirupsen/logrus"
)

// Stepper advances the host by one cooperative unit of work (one frame).
type Stepper interface {
	Step(ctx context.Context) error
}

// StepperFunc adapts a function to Stepper.
type StepperFunc func(ctx context.Context) error

// Step calls f(ctx).
func (f StepperFunc) Step(ctx context.Context) error {
	return f(ctx)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Deadline is an absolute point in time after which a wait has timed out.
type Deadline struct {
	at time.Time
}

// NewDeadline returns a deadline timeout after start.
func NewDeadline(start time.Time, timeout time.Duration) Deadline {
	return Deadline{at: start.Add(timeout)}
}

// At returns the instant of the deadline.
func (d Deadline) At() time.Time {
	return d.at
}

// Expired reports whether now is strictly after the deadline.
func (d Deadline) Expired(now time.Time) bool {
	return now.After(d.at)
}

// Poller waits on conditions, stepping the host once per check.
type Poller struct {
	log     logrus.FieldLogger
	stepper Stepper
	clock   Clock
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock overrides the clock used for deadlines.
func WithClock(c Clock) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// NewPoller creates a poller that yields to stepper on every iteration.
func NewPoller(log logrus.FieldLogger, stepper Stepper, opts ...Option) *Poller {
	p := &Poller{
		log:     log.WithField("component", "poller"),
		stepper: stepper,
		clock:   SystemClock,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WaitFor steps the host and evaluates cond until it returns true or timeout
// elapses. The deadline is checked before cond on every iteration, so a
// condition that becomes true exactly at the deadline is reported as a timeout.
// The only error returned is ctx.Err().
func (p *Poller) WaitFor(ctx context.Context, cond func() bool, timeout time.Duration) (bool, error) {
	return p.wait(ctx, func() (bool, error) {
		return cond(), nil
	}, timeout)
}

// WaitForValue is WaitFor for conditions whose result is not statically typed.
// A result that is not a bool fails with a *typecheck.TypeConstraintError on
// the first evaluation. Errors returned by cond are passed through.
func (p *Poller) WaitForValue(ctx context.Context, cond func() (any, error), timeout time.Duration) (bool, error) {
	return p.wait(ctx, func() (bool, error) {
		v, err := cond()
		if err != nil {
			return false, err
		}

		return typecheck.Bool("condition return value", v)
	}, timeout)
}

func (p *Poller) wait(ctx context.Context, eval func() (bool, error), timeout time.Duration) (bool, error) {
	var (
		deadline = NewDeadline(p.clock.Now(), timeout)
		steps    int
	)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if err := p.stepper.Step(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return false, ctxErr
			}

			p.log.WithError(err).Warn("couldn't wait for frame")
		}
		steps++

		if deadline.Expired(p.clock.Now()) {
			p.log.WithFields(logrus.Fields{
				"timeout": timeout,
				"steps":   steps,
			}).Debug("condition timed out")

			return false, nil
		}

		ok, err := eval()
		if err != nil {
			return false, err
		}

		if ok {
			p.log.WithField("steps", steps).Debug("condition met")

			return true, nil
		}
	}
}

// SleepStepper returns a Stepper that waits interval per step, for hosts with
// no scheduler of their own.
func SleepStepper(interval time.Duration) Stepper {
	return StepperFunc(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			return nil
		}
	})
}
