package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/countryleaders/internal/model"
)

// YAMLWriter writes YAML output.
type YAMLWriter struct {
	w *bufio.Writer
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write encodes result as a mapping of country to leaders.
func (w *YAMLWriter) Write(result *model.ScrapeResult) error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(result.Snapshot()); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
