package output

import (
	"io"
	"sync"
)

// SyncWriter serializes writes to an underlying writer. Callers that emit
// one message per Write never interleave.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w. Wrapping a SyncWriter returns it unchanged.
func NewSyncWriter(w io.Writer) *SyncWriter {
	if sw, ok := w.(*SyncWriter); ok {
		return sw
	}

	return &SyncWriter{w: w}
}

// Write implements io.Writer.
func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}

var _ io.Writer = (*SyncWriter)(nil)
