package commands

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/countryleaders/internal/api"
	"github.com/jmylchreest/countryleaders/internal/biography"
	"github.com/jmylchreest/countryleaders/internal/cache"
	"github.com/jmylchreest/countryleaders/internal/config"
	"github.com/jmylchreest/countryleaders/internal/enrich"
	"github.com/jmylchreest/countryleaders/internal/logger"
	"github.com/jmylchreest/countryleaders/internal/model"
	"github.com/jmylchreest/countryleaders/internal/scrape"
	"github.com/jmylchreest/countryleaders/internal/session"
	"github.com/jmylchreest/countryleaders/pkg/cleaner"
	"github.com/jmylchreest/countryleaders/pkg/fetcher"
)

// app holds the components of one scrape run.
type app struct {
	client      *api.Client
	pages       fetcher.Fetcher
	cache       cache.Cache
	coordinator *scrape.Coordinator
}

// newClient builds the authenticated API client.
func newClient(cfg *config.Config) *api.Client {
	return api.New(cfg.API(), session.New(cfg.Session()))
}

// newSanitizer builds the fixed-point sanitizer for a preset.
func newSanitizer(preset string) (*cleaner.Sanitizer, error) {
	rule, err := cleaner.Preset(preset)
	if err != nil {
		return nil, err
	}
	return cleaner.NewSanitizer(rule), nil
}

// newApp wires session, API client, page fetcher, cache, biography lookup,
// executor and coordinator from cfg.
func newApp(cfg *config.Config, progress enrich.ProgressFunc) (*app, error) {
	sanitizer, err := newSanitizer(cfg.Preset)
	if err != nil {
		return nil, err
	}

	mode, err := enrich.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	exec, err := enrich.NewExecutor(mode, cfg.Workers)
	if err != nil {
		return nil, err
	}

	bioCache, err := cache.Open(cfg.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	pages := fetcher.NewStatic(cfg.Fetcher())
	bios := biography.New(pages,
		biography.WithConfig(cfg.Biography()),
		biography.WithSanitizer(sanitizer),
		biography.WithCache(bioCache),
	)

	var opts []enrich.Option
	if progress != nil {
		opts = append(opts, enrich.WithProgress(progress))
	}
	client := newClient(cfg)
	enricher := enrich.New(bios, exec, opts...)

	logger.Debug("components wired",
		"mode", mode,
		"workers", cfg.Workers,
		"preset", cfg.Preset,
		"rules", sanitizer.Name(),
		"cache", cfg.Cache,
		"max_page_size", cfg.PageLimit(),
		"rate_limit", cfg.RateLimit,
	)

	return &app{
		client:      client,
		pages:       pages,
		cache:       bioCache,
		coordinator: scrape.New(client, enricher),
	}, nil
}

// Close releases the page fetcher and cache.
func (a *app) Close() error {
	var errs []error
	if err := a.pages.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// progressPrinter prints a line once every leader of a country is resolved.
func progressPrinter() enrich.ProgressFunc {
	return func(country model.Country, done, total int) {
		if done == total {
			logInfo("  %s: %d/%d leaders", country, done, total)
		}
	}
}
