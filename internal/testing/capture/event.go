// Package capture records host diagnostic events (warnings, errors, asserts
// and prints) raised while a tracing scope is open.
package capture

import "fmt"

// Kind identifies the variant of a captured event.
type Kind int

const (
	// KindWarning is a host warning.
	KindWarning Kind = iota
	// KindError is a host error.
	KindError
	// KindAssert is a host assert.
	KindAssert
	// KindPrint is a plain log line.
	KindPrint
)

func (k Kind) String() string {
	switch k {
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	case KindAssert:
		return "assert"
	case KindPrint:
		return "print"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "warning":
		return KindWarning, nil
	case "error":
		return KindError, nil
	case "assert":
		return KindAssert, nil
	case "print":
		return KindPrint, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

// Event is implemented by Warning, Error, Assert and Print.
type Event interface {
	Kind() Kind
	Summary() string
}

// Warning is a host warning.
type Warning struct {
	Window   string
	File     string
	Line     int
	Function string
	Message  string
}

// Kind implements Event.
func (Warning) Kind() Kind { return KindWarning }

func (w Warning) String() string {
	return fmt.Sprintf("Warning: [%s:%s:%d]: [%s] %s", w.File, w.Function, w.Line, w.Window, w.Message)
}

// Summary implements Event.
func (w Warning) Summary() string {
	return fmt.Sprintf("[Warning: %s]", w.Message)
}

// Error is a host error.
type Error struct {
	Window   string
	File     string
	Line     int
	Function string
	Message  string
}

// Kind implements Event.
func (Error) Kind() Kind { return KindError }

func (e Error) String() string {
	return fmt.Sprintf("Error: [%s:%s:%d]: [%s] %s", e.File, e.Function, e.Line, e.Window, e.Message)
}

// Summary implements Event.
func (e Error) Summary() string {
	return fmt.Sprintf("[Error: %s]", e.Message)
}

// Assert is a host assert. Asserts carry no window.
type Assert struct {
	File     string
	Line     int
	Function string
	Message  string
}

// Kind implements Event.
func (Assert) Kind() Kind { return KindAssert }

func (a Assert) String() string {
	return fmt.Sprintf("Assert: [%s:%s:%d]: %s", a.File, a.Function, a.Line, a.Message)
}

// Summary implements Event.
func (a Assert) Summary() string {
	return fmt.Sprintf("[Assert: %s]", a.Message)
}

// Print is a log line.
type Print struct {
	Window  string
	Message string
}

// Kind implements Event.
func (Print) Kind() Kind { return KindPrint }

func (p Print) String() string {
	return fmt.Sprintf("[%s] %s", p.Window, p.Message)
}

// Summary implements Event.
func (p Print) Summary() string {
	return fmt.Sprintf("[Print: %s]", p.Message)
}

var (
	_ Event = Warning{}
	_ Event = Error{}
	_ Event = Assert{}
	_ Event = Print{}
)
