// Package enrich attaches biography paragraphs to a country's leaders,
// fetching pages concurrently under a worker bound.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/jmylchreest/countryleaders/internal/biography"
	"github.com/jmylchreest/countryleaders/internal/logger"
	"github.com/jmylchreest/countryleaders/internal/model"
)

// ParagraphSource looks up a lead paragraph for a page URL.
// *biography.Fetcher implements it.
type ParagraphSource interface {
	Lookup(ctx context.Context, pageURL string) biography.Outcome
}

// ProgressFunc is called after each leader is resolved.
type ProgressFunc func(country model.Country, done, total int)

// Stats summarizes one Enrich call.
type Stats struct {
	Leaders  int
	Found    int // paragraph attached
	Cached   int // of Found, served from cache
	NoURL    int // leader had no page URL
	Missing  int // page fetched but no qualifying paragraph
	Failed   int // fetch failed or task panicked
	Duration time.Duration
}

// Enricher fills Leader.FirstParagraph.
type Enricher struct {
	source   ParagraphSource
	exec     Executor
	progress ProgressFunc
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Enricher) {
		e.progress = fn
	}
}

// New creates an Enricher. A nil exec runs sequentially.
func New(source ParagraphSource, exec Executor, opts ...Option) *Enricher {
	if exec == nil {
		exec = sequentialExecutor{}
	}
	e := &Enricher{source: source, exec: exec}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a copy of leaders, in input order, with FirstParagraph set
// wherever a paragraph was found and nil everywhere else. A failed lookup
// never drops a leader.
func (e *Enricher) Enrich(ctx context.Context, country model.Country, leaders []model.Leader) ([]model.Leader, Stats) {
	start := time.Now()
	log := logger.Component("enrich").With("country", country, "mode", e.exec.Mode())

	out := make([]model.Leader, len(leaders))
	copy(out, leaders)

	stats := Stats{Leaders: len(out)}
	resolved := 0
	tick := func() {
		resolved++
		if e.progress != nil {
			e.progress(country, resolved, len(out))
		}
	}

	// Each task writes only its own slot in out and cached.
	var (
		tasks  []Task
		slots  []int
		cached = make([]bool, len(out))
	)
	for i := range out {
		out[i].FirstParagraph = nil
		if out[i].WikipediaURL == "" {
			stats.NoURL++
			tick()
			continue
		}
		slot := i
		tasks = append(tasks, func(ctx context.Context) error {
			outcome := e.source.Lookup(ctx, out[slot].WikipediaURL)
			if outcome.Err != nil {
				return outcome.Err
			}
			out[slot].FirstParagraph = outcome.Paragraph
			cached[slot] = outcome.Cached
			return nil
		})
		slots = append(slots, slot)
	}

	e.exec.Execute(ctx, tasks, func(i int, err error) {
		defer tick()
		l := out[slots[i]]
		switch {
		case err == nil:
			stats.Found++
			if cached[slots[i]] {
				stats.Cached++
			}
		case errors.Is(err, biography.ErrNoParagraph), errors.Is(err, biography.ErrNoURL):
			stats.Missing++
		default:
			stats.Failed++
			log.Debug("biography lookup failed", "leader", l.ID, "url", l.WikipediaURL, "error", err)
		}
	})

	stats.Duration = time.Since(start)
	log.Debug("enrichment complete",
		"leaders", stats.Leaders,
		"found", stats.Found,
		"cached", stats.Cached,
		"missing", stats.Missing,
		"failed", stats.Failed,
		"duration", stats.Duration)
	return out, stats
}
