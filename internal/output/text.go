package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Texter is implemented by results with a human-readable rendering.
type Texter interface {
	WriteText(w io.Writer) error
}

// TextWriter renders results for a terminal. Values that do not implement
// Texter are printed with %v.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// Write renders a single result.
func (w *TextWriter) Write(data any) error {
	if t, ok := data.(Texter); ok {
		return t.WriteText(w.w)
	}
	_, err := fmt.Fprintf(w.w, "%v\n", data)
	return err
}

// Close is a no-op.
func (w *TextWriter) Close() error { return nil }

// Table writes aligned rows; the first row is treated as the header.
func Table(w io.Writer, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				if _, err := io.WriteString(tw, "\t"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(tw, cell); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(tw, "\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
