package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrTracerReused is returned when Start is called on a tracer that has already been started.
	ErrTracerReused = errors.New("tracer already used, create a new one per scope")
	// ErrTracerNotActive is returned when Stop is called on a tracer that is not capturing.
	ErrTracerNotActive = errors.New("tracer is not active")
)

// Listener receives diagnostic events from a Bus. Returning true suppresses
// the event for listeners further down the bus.
type Listener interface {
	OnPreWarning(w Warning) bool
	OnPreError(e Error) bool
	OnPreAssert(a Assert) bool
	OnPrintf(p Print) bool
}

// Bus is the host diagnostic event stream.
type Bus interface {
	Subscribe(l Listener) error
	Unsubscribe(l Listener) error
}

// Tracer buffers every event delivered between Start and Stop. A tracer is
// single use; the buffers stay readable after Stop.
type Tracer struct {
	log logrus.FieldLogger

	mu          sync.RWMutex
	bus         Bus
	active      bool
	used        bool
	warnings    []Warning
	errors      []Error
	asserts     []Assert
	prints      []Print
	hasWarnings bool
	hasErrors   bool
	hasAsserts  bool
}

// NewTracer creates a tracer for bus. Nothing is captured until Start.
func NewTracer(log logrus.FieldLogger, bus Bus) *Tracer {
	return &Tracer{
		log: log.WithField("component", "tracer"),
		bus: bus,
	}
}

// Trace runs fn with a started tracer and always stops it afterwards, whether
// fn returns, fails or panics. The tracer is returned so callers can inspect
// what was captured.
func Trace(log logrus.FieldLogger, bus Bus, fn func(t *Tracer) error) (t *Tracer, err error) {
	t = NewTracer(log, bus)
	if err := t.Start(); err != nil {
		return t, err
	}

	defer func() {
		if stopErr := t.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	return t, fn(t)
}

// Start subscribes to the bus.
func (t *Tracer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.used {
		return ErrTracerReused
	}

	if t.bus == nil {
		return errors.New("tracer has no bus")
	}

	t.used = true

	// Buses must not deliver from inside Subscribe; the lock is held.
	if err := t.bus.Subscribe(t); err != nil {
		return fmt.Errorf("subscribing to diagnostic bus: %w", err)
	}

	t.active = true
	t.log.Debug("tracer started")

	return nil
}

// Stop unsubscribes from the bus and drops the bus reference.
func (t *Tracer) Stop() error {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return ErrTracerNotActive
	}

	bus := t.bus
	t.active = false
	t.bus = nil
	t.mu.Unlock()

	if err := bus.Unsubscribe(t); err != nil {
		return fmt.Errorf("unsubscribing from diagnostic bus: %w", err)
	}

	t.log.WithFields(logrus.Fields{
		"warnings": len(t.Warnings()),
		"errors":   len(t.Errors()),
		"asserts":  len(t.Asserts()),
		"prints":   len(t.Prints()),
	}).Debug("tracer stopped")

	return nil
}

// Active reports whether the tracer is currently capturing.
func (t *Tracer) Active() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.active
}

// OnPreWarning implements Listener.
func (t *Tracer) OnPreWarning(w Warning) bool {
	defer t.guard("warning")

	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return false
	}
	t.warnings = append(t.warnings, w)
	t.hasWarnings = true
	t.mu.Unlock()

	t.log.Infof("Tracer caught Warning: %s", w.Message)

	return false
}

// OnPreError implements Listener.
func (t *Tracer) OnPreError(e Error) bool {
	defer t.guard("error")

	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return false
	}
	t.errors = append(t.errors, e)
	t.hasErrors = true
	t.mu.Unlock()

	t.log.Infof("Tracer caught Error: %s", e.Message)

	return false
}

// OnPreAssert implements Listener.
func (t *Tracer) OnPreAssert(a Assert) bool {
	defer t.guard("assert")

	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return false
	}
	t.asserts = append(t.asserts, a)
	t.hasAsserts = true
	t.mu.Unlock()

	t.log.Infof("Tracer caught Assert: %s:%d[%s] %q", a.File, a.Line, a.Function, a.Message)

	return false
}

// OnPrintf implements Listener.
func (t *Tracer) OnPrintf(p Print) bool {
	defer t.guard("print")

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active {
		t.prints = append(t.prints, p)
	}

	return false
}

// guard keeps a misbehaving logger from breaking the host's dispatch loop.
func (t *Tracer) guard(kind string) {
	if r := recover(); r != nil {
		t.log.WithField("kind", kind).Errorf("recovered panic in tracer callback: %v", r)
	}
}

// Warnings returns a copy of the captured warnings.
func (t *Tracer) Warnings() []Warning {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Warning, len(t.warnings))
	copy(out, t.warnings)

	return out
}

// Errors returns a copy of the captured errors.
func (t *Tracer) Errors() []Error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Error, len(t.errors))
	copy(out, t.errors)

	return out
}

// Asserts returns a copy of the captured asserts.
func (t *Tracer) Asserts() []Assert {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Assert, len(t.asserts))
	copy(out, t.asserts)

	return out
}

// Prints returns a copy of the captured prints.
func (t *Tracer) Prints() []Print {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Print, len(t.prints))
	copy(out, t.prints)

	return out
}

// HasWarnings reports whether any warning was captured.
func (t *Tracer) HasWarnings() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.hasWarnings
}

// HasErrors reports whether any error was captured.
func (t *Tracer) HasErrors() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.hasErrors
}

// HasAsserts reports whether any assert was captured.
func (t *Tracer) HasAsserts() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.hasAsserts
}

// Compile-time interface compliance check
var _ Listener = (*Tracer)(nil)
