// Package table renders run results and summaries as terminal tables.
package table

import (
	"bytes"
	"context"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// Alignment positions text within a column.
type Alignment int

// Column alignments.
const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

func (a Alignment) tablewriter() int {
	switch a {
	case AlignRight:
		return tablewriter.ALIGN_RIGHT
	case AlignCenter:
		return tablewriter.ALIGN_CENTER
	default:
		return tablewriter.ALIGN_LEFT
	}
}

// Renderer draws rows of cells. Cells may carry ANSI colour and may span
// several lines.
type Renderer interface {
	Start(ctx context.Context) error
	Stop() error
	RenderToString(headers []string, rows [][]string, opts ...RenderOption) string
	RenderToWriter(w io.Writer, headers []string, rows [][]string, opts ...RenderOption)
}

type renderer struct {
	log logrus.FieldLogger
}

// NewRenderer creates a table renderer.
func NewRenderer(log logrus.FieldLogger) Renderer {
	return &renderer{
		log: log.WithField("component", "table_renderer"),
	}
}

func (r *renderer) Start(_ context.Context) error {
	r.log.Debug("table renderer started")
	return nil
}

func (r *renderer) Stop() error {
	r.log.Debug("table renderer stopped")
	return nil
}

// RenderOption adjusts a single render.
type RenderOption func(*renderSettings)

type renderSettings struct {
	columns  []Alignment
	border   bool
	rowLines bool
}

// WithColumnAlignment aligns columns left to right. Columns past the end of
// the list stay left aligned.
func WithColumnAlignment(alignments ...Alignment) RenderOption {
	return func(s *renderSettings) {
		s.columns = alignments
	}
}

// WithBorder draws or hides the outer frame.
func WithBorder(show bool) RenderOption {
	return func(s *renderSettings) {
		s.border = show
	}
}

// WithRowSeparator draws a rule between rows, for multi-line cells.
func WithRowSeparator(show bool) RenderOption {
	return func(s *renderSettings) {
		s.rowLines = show
	}
}

func (r *renderer) RenderToString(headers []string, rows [][]string, opts ...RenderOption) string {
	buf := &bytes.Buffer{}
	r.RenderToWriter(buf, headers, rows, opts...)
	return buf.String()
}

func (r *renderer) RenderToWriter(w io.Writer, headers []string, rows [][]string, opts ...RenderOption) {
	settings := renderSettings{border: true}
	for _, opt := range opts {
		opt(&settings)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetTablePadding(" ")
	table.SetNoWhiteSpace(false)
	table.SetBorder(settings.border)
	table.SetRowLine(settings.rowLines)

	if len(settings.columns) > 0 {
		aligns := make([]int, len(settings.columns))
		for i, a := range settings.columns {
			aligns[i] = a.tablewriter()
		}

		table.SetColumnAlignment(aligns)
	}

	table.AppendBulk(rows)
	table.Render()

	r.log.WithFields(logrus.Fields{
		"rows":    len(rows),
		"columns": len(headers),
	}).Debug("rendered table")
}

var _ Renderer = (*renderer)(nil)
