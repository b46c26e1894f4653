// Package output handles output formatting and writing of scrape results.
package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/countryleaders/internal/model"
)

// Format represents output format types.
type Format string

const (
	FormatJSON   Format = "json"
	FormatJSONL  Format = "jsonl"
	FormatYAML   Format = "yaml"
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

// Writer serializes a whole scrape result to a stream.
type Writer interface {
	Write(result *model.ScrapeResult) error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified stream format.
// FormatSQLite is not a stream format; use OpenSQLite or NewSink.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatCSV:
		return NewCSVWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatJSONL, FormatYAML, FormatCSV, FormatSQLite:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "ndjson":
		return FormatJSONL, nil
	case "db", "sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", name)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer output format of %q: no extension", path)
	}
	return ParseFormat(ext)
}
