package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmylchreest/countryleaders/internal/logger"
	"github.com/jmylchreest/countryleaders/internal/model"
)

// Sink persists a scrape result.
type Sink interface {
	Save(ctx context.Context, result *model.ScrapeResult) error
}

// Target is one output destination.
type Target struct {
	Path   string
	Format Format // empty: inferred from Path
}

// DefaultTargets are the files written when no target is configured.
func DefaultTargets(dir string) []Target {
	return []Target{
		{Path: filepath.Join(dir, "leaders.json"), Format: FormatJSON},
		{Path: filepath.Join(dir, "leaders.csv"), Format: FormatCSV},
	}
}

// FileSink writes a stream format to a file, replacing it atomically.
type FileSink struct {
	path   string
	format Format
	opts   []WriterOption
}

// NewFileSink creates a file sink.
func NewFileSink(path string, format Format, opts ...WriterOption) *FileSink {
	return &FileSink{path: path, format: format, opts: opts}
}

// Save writes result to a temporary file next to the target and renames it into place.
func (s *FileSink) Save(_ context.Context, result *model.ScrapeResult) (err error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	w, err := NewWriter(tmp, s.format, s.opts...)
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if err := w.Write(result); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", s.format, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// sqliteFileSink opens the database per save so the handle is not held across a run.
type sqliteFileSink struct {
	path string
}

func (s sqliteFileSink) Save(ctx context.Context, result *model.ScrapeResult) error {
	db, err := OpenSQLite(ctx, s.path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Save(ctx, result)
}

// NewSink creates the sink for target.
func NewSink(target Target, opts ...WriterOption) (Sink, error) {
	format := target.Format
	if format == "" {
		f, err := FormatFromPath(target.Path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	switch format {
	case FormatSQLite:
		return sqliteFileSink{path: target.Path}, nil
	case FormatJSON, FormatJSONL, FormatYAML, FormatCSV:
		return NewFileSink(target.Path, format, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// SaveAll writes result to every target. All targets are attempted; the
// errors of those that failed are joined.
func SaveAll(ctx context.Context, result *model.ScrapeResult, targets []Target, opts ...WriterOption) error {
	var errs []error
	for _, t := range targets {
		sink, err := NewSink(t, opts...)
		if err == nil {
			err = sink.Save(ctx, result)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Path, err))
			continue
		}
		logger.Info("output written", "path", t.Path)
	}
	return errors.Join(errs...)
}
