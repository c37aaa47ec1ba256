package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes each result as its own YAML document.
type YAMLWriter struct {
	enc *yaml.Encoder
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &YAMLWriter{enc: enc}
}

// Write encodes a single document.
func (w *YAMLWriter) Write(data any) error {
	return w.enc.Encode(data)
}

// Close terminates the stream.
func (w *YAMLWriter) Close() error {
	return w.enc.Close()
}
