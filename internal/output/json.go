package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/countryleaders/internal/model"
)

// JSONWriter writes the result as one object keyed by country.
// Non-ASCII text is written as-is.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
	}
}

// Write encodes result. Country keys are sorted.
func (w *JSONWriter) Write(result *model.ScrapeResult) error {
	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if w.pretty {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(result.Snapshot()); err != nil {
		return err
	}
	return w.w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL), one leader per line.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// jsonlRecord is a leader tagged with its country, country first.
func jsonlRecord(country model.Country, l model.Leader) ([]byte, error) {
	tag, err := json.Marshal(string(country))
	if err != nil {
		return nil, err
	}
	fields := append([]model.Field{{Key: "country", Value: tag}}, l.Fields()...)
	return append(model.MarshalFields(fields), '\n'), nil
}

// Write writes every leader as a JSON line, countries in commit order.
func (w *JSONLWriter) Write(result *model.ScrapeResult) error {
	var err error
	result.Each(func(country model.Country, leaders []model.Leader) {
		for _, l := range leaders {
			if err != nil {
				return
			}
			var line []byte
			if line, err = jsonlRecord(country, l); err == nil {
				_, err = w.w.Write(line)
			}
		}
	})
	if err != nil {
		return err
	}
	return w.w.Flush()
}
