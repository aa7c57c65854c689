package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Sink surfaces a finished run outside the process.
type Sink interface {
	Report(ctx context.Context, r RunReport) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r RunReport) error

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, r RunReport) error {
	return f(ctx, r)
}

type multiSink []Sink

// MultiSink reports to every sink in order and joins their errors.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Report(ctx context.Context, r RunReport) error {
	var errs []error

	for _, s := range m {
		if s == nil {
			continue
		}

		if err := s.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// WriterSink prints the report text to a writer with a coloured verdict line.
// Reports from concurrent runs are written whole, one at a time.
type WriterSink struct {
	mu    sync.Mutex
	w     io.Writer
	green *color.Color
	red   *color.Color
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{
		w:     w,
		green: color.New(color.FgGreen, color.Bold),
		red:   color.New(color.FgRed, color.Bold),
	}
}

// Report implements Sink. The report goes out in a single Write so a
// writer shared with other output keeps it whole.
func (s *WriterSink) Report(_ context.Context, r RunReport) error {
	body, verdictLine := splitVerdictLine(r.Text)

	c := s.green
	if !r.Success {
		c = s.red
	}

	var buf bytes.Buffer
	buf.WriteString(body)
	buf.WriteString(c.Sprint(verdictLine))
	buf.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

func splitVerdictLine(text string) (body, last string) {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '\n' {
			return text[:i+1], text[i+1:]
		}
	}

	return "", text
}

// ResultDocument is the on-disk form written by FileSink.
type ResultDocument struct {
	RunID     string    `yaml:"run_id"`
	Name      string    `yaml:"name"`
	Verdict   string    `yaml:"verdict"`
	Success   bool      `yaml:"success"`
	Aborted   bool      `yaml:"aborted"`
	Outcomes  []Outcome `yaml:"outcomes"`
	Exception string    `yaml:"exception,omitempty"`
	StartedAt time.Time `yaml:"started_at"`
	Duration  string    `yaml:"duration"`
	Report    string    `yaml:"report"`
}

// FileSink writes one YAML result document per run into a directory.
type FileSink struct {
	dir string
	log logrus.FieldLogger
}

// NewFileSink creates a sink writing into dir, creating it if needed.
func NewFileSink(log logrus.FieldLogger, dir string) *FileSink {
	return &FileSink{
		dir: dir,
		log: log.WithField("component", "file_sink"),
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Path returns the file a run is written to.
func (s *FileSink) Path(r RunReport) string {
	name := unsafeFileChars.ReplaceAllString(r.Name, "_")
	if name == "" {
		name = "run"
	}

	id := r.RunID
	if id == "" {
		id = "unassigned"
	}

	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.yaml", name, id))
}

// Report implements Sink.
func (s *FileSink) Report(_ context.Context, r RunReport) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating result directory: %w", err)
	}

	verdictLiteral := VerdictFailure
	if r.Success {
		verdictLiteral = VerdictSuccess
	}

	doc := ResultDocument{
		RunID:     r.RunID,
		Name:      r.Name,
		Verdict:   verdictLiteral,
		Success:   r.Success,
		Aborted:   r.Aborted,
		Outcomes:  r.Outcomes,
		Exception: r.Trace,
		StartedAt: r.StartedAt,
		Duration:  r.Duration.String(),
		Report:    r.Text,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshalling result document: %w", err)
	}

	path := s.Path(r)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	s.log.WithField("path", path).Debug("wrote result document")

	return nil
}

// LoadResultDocument reads a document written by FileSink.
func LoadResultDocument(path string) (*ResultDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc ResultDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &doc, nil
}

var (
	_ Sink = (*WriterSink)(nil)
	_ Sink = (*FileSink)(nil)
	_ Sink = SinkFunc(nil)
)
