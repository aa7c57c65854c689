package metrics

import (
	"sync"

	"github.com/ethpandaops/scenecheck/internal/testing/capture"
)

// DiagnosticCounter is a bus listener that counts every event it sees for
// the lifetime of a run. It never suppresses.
type DiagnosticCounter struct {
	mu     sync.Mutex
	metric DiagnosticMetric
}

// NewDiagnosticCounter creates a counter for the named run.
func NewDiagnosticCounter(run string) *DiagnosticCounter {
	return &DiagnosticCounter{metric: DiagnosticMetric{Run: run}}
}

// OnPreWarning implements capture.Listener.
func (c *DiagnosticCounter) OnPreWarning(capture.Warning) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metric.Warnings++

	return false
}

// OnPreError implements capture.Listener.
func (c *DiagnosticCounter) OnPreError(capture.Error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metric.Errors++

	return false
}

// OnPreAssert implements capture.Listener.
func (c *DiagnosticCounter) OnPreAssert(capture.Assert) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metric.Asserts++

	return false
}

// OnPrintf implements capture.Listener.
func (c *DiagnosticCounter) OnPrintf(capture.Print) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metric.Prints++

	return false
}

// Metric returns the counts so far.
func (c *DiagnosticCounter) Metric() DiagnosticMetric {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.metric
}

var _ capture.Listener = (*DiagnosticCounter)(nil)
