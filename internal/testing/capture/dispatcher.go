package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrAlreadySubscribed is returned when a listener subscribes twice.
	ErrAlreadySubscribed = errors.New("listener already subscribed")
	// ErrNotSubscribed is returned when unsubscribing an unknown listener.
	ErrNotSubscribed = errors.New("listener not subscribed")
)

// Dispatcher is an in-process Bus. Events are delivered synchronously to
// listeners in subscription order until one of them suppresses the event.
type Dispatcher struct {
	log logrus.FieldLogger

	mu        sync.RWMutex
	listeners []Listener
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		log: log.WithField("component", "diagnostic_bus"),
	}
}

// Subscribe implements Bus.
func (d *Dispatcher) Subscribe(l Listener) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.listeners {
		if existing == l {
			return ErrAlreadySubscribed
		}
	}

	d.listeners = append(d.listeners, l)

	return nil
}

// Unsubscribe implements Bus.
func (d *Dispatcher) Unsubscribe(l Listener) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.listeners {
		if existing == l {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return nil
		}
	}

	return ErrNotSubscribed
}

// Listeners returns the number of subscribed listeners.
func (d *Dispatcher) Listeners() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.listeners)
}

// Warning publishes a warning and reports whether it was suppressed.
func (d *Dispatcher) Warning(w Warning) bool {
	return d.dispatch(KindWarning, func(l Listener) bool { return l.OnPreWarning(w) })
}

// Error publishes an error and reports whether it was suppressed.
func (d *Dispatcher) Error(e Error) bool {
	return d.dispatch(KindError, func(l Listener) bool { return l.OnPreError(e) })
}

// Assert publishes an assert and reports whether it was suppressed.
func (d *Dispatcher) Assert(a Assert) bool {
	return d.dispatch(KindAssert, func(l Listener) bool { return l.OnPreAssert(a) })
}

// Printf publishes a log line and reports whether it was suppressed.
func (d *Dispatcher) Printf(p Print) bool {
	return d.dispatch(KindPrint, func(l Listener) bool { return l.OnPrintf(p) })
}

// Publish routes any Event to the matching method.
func (d *Dispatcher) Publish(ev Event) (bool, error) {
	switch e := ev.(type) {
	case Warning:
		return d.Warning(e), nil
	case Error:
		return d.Error(e), nil
	case Assert:
		return d.Assert(e), nil
	case Print:
		return d.Printf(e), nil
	default:
		return false, fmt.Errorf("unsupported event type %T", ev)
	}
}

func (d *Dispatcher) dispatch(kind Kind, deliver func(Listener) bool) bool {
	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, l := range listeners {
		if d.safeDeliver(kind, l, deliver) {
			return true
		}
	}

	return false
}

func (d *Dispatcher) safeDeliver(kind Kind, l Listener, deliver func(Listener) bool) (suppressed bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithField("kind", kind.String()).Warnf("listener panicked: %v", r)
			suppressed = false
		}
	}()

	return deliver(l)
}

// Hook returns a logrus hook that mirrors log entries onto the dispatcher.
// Warnings become Warning events, error and above become Error events and
// everything else becomes a Print. The "window" field, when present, is used
// as the origin tag.
func (d *Dispatcher) Hook() logrus.Hook {
	return &busHook{dispatcher: d}
}

type busHook struct {
	dispatcher *Dispatcher
}

func (h *busHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *busHook) Fire(entry *logrus.Entry) error {
	window := "logrus"
	if w, ok := entry.Data["window"].(string); ok && w != "" {
		window = w
	}

	var (
		file     string
		line     int
		function string
	)

	if entry.HasCaller() {
		file = entry.Caller.File
		line = entry.Caller.Line
		function = entry.Caller.Function
	}

	switch entry.Level {
	case logrus.WarnLevel:
		h.dispatcher.Warning(Warning{
			Window:   window,
			File:     file,
			Line:     line,
			Function: function,
			Message:  entry.Message,
		})
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		h.dispatcher.Error(Error{
			Window:   window,
			File:     file,
			Line:     line,
			Function: function,
			Message:  entry.Message,
		})
	default:
		h.dispatcher.Printf(Print{Window: window, Message: entry.Message})
	}

	return nil
}

// Compile-time interface compliance check
var _ Bus = (*Dispatcher)(nil)
