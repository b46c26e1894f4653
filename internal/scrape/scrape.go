// Package scrape drives a full run: list countries, fetch each country's
// leaders, enrich them and commit the result.
package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/jmylchreest/countryleaders/internal/enrich"
	"github.com/jmylchreest/countryleaders/internal/logger"
	"github.com/jmylchreest/countryleaders/internal/model"
)

// LeaderSource is the leaders API. *api.Client implements it.
type LeaderSource interface {
	ListCountries(ctx context.Context) ([]model.Country, error)
	ListLeaders(ctx context.Context, country model.Country) ([]model.Leader, error)
}

// Enricher attaches paragraphs. *enrich.Enricher implements it.
type Enricher interface {
	Enrich(ctx context.Context, country model.Country, leaders []model.Leader) ([]model.Leader, enrich.Stats)
}

// CountryReport records what happened to one country.
type CountryReport struct {
	Country  model.Country
	Leaders  int
	Enrich   enrich.Stats
	Err      error
	Duration time.Duration
}

// Report summarizes a run.
type Report struct {
	Countries []CountryReport
	Committed int
	Skipped   int
	Duration  time.Duration
}

// Coordinator runs scrapes. Countries are processed one at a time.
type Coordinator struct {
	source   LeaderSource
	enricher Enricher
}

// New creates a Coordinator.
func New(source LeaderSource, enricher Enricher) *Coordinator {
	return &Coordinator{source: source, enricher: enricher}
}

// Run scrapes countries in order. A nil countries asks the API for the full
// list; a non-nil empty slice scrapes nothing. A code repeated after it was
// committed is ignored. A country whose leaders cannot be fetched is skipped and left out of
// the result. The returned error is non-nil only when the country list itself
// could not be obtained; on cancellation the partial result is returned
// together with ctx.Err().
func (c *Coordinator) Run(ctx context.Context, countries []model.Country) (*model.ScrapeResult, Report, error) {
	start := time.Now()
	result := model.NewScrapeResult()
	var report Report

	if countries == nil {
		listed, err := c.source.ListCountries(ctx)
		if err != nil {
			return result, report, fmt.Errorf("list countries: %w", err)
		}
		countries = listed
	}

	logger.InfoContext(ctx, "scrape starting", "countries", len(countries))

	for _, country := range countries {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			logger.WarnContext(ctx, "scrape interrupted", "committed", report.Committed, "error", err)
			return result, report, err
		}
		if result.Has(country) {
			logger.DebugContext(ctx, "duplicate country ignored", "country", country)
			continue
		}

		cr := c.scrapeCountry(ctx, country)
		report.Countries = append(report.Countries, cr.report)
		if cr.report.Err != nil {
			report.Skipped++
			logger.WarnContext(ctx, "country skipped", "country", country, "error", cr.report.Err)
			continue
		}

		result.Commit(country, cr.leaders)
		report.Committed++
		logger.InfoContext(ctx, "country done",
			"country", country,
			"leaders", cr.report.Leaders,
			"with_paragraph", cr.report.Enrich.Found,
			"duration", cr.report.Duration.Round(time.Millisecond))
	}

	report.Duration = time.Since(start)
	logger.InfoContext(ctx, "scrape complete",
		"committed", report.Committed,
		"skipped", report.Skipped,
		"duration", report.Duration.Round(time.Millisecond))
	return result, report, ctx.Err()
}

type countryResult struct {
	leaders []model.Leader
	report  CountryReport
}

// scrapeCountry fetches and enriches one country. A panic is contained and
// reported as that country's error.
func (c *Coordinator) scrapeCountry(ctx context.Context, country model.Country) (res countryResult) {
	start := time.Now()
	res.report.Country = country
	defer func() {
		if r := recover(); r != nil {
			res.leaders = nil
			res.report.Err = fmt.Errorf("panic while scraping %s: %v", country, r)
			logger.ErrorContext(ctx, "country panicked", "country", country, "panic", r)
		}
		res.report.Duration = time.Since(start)
	}()

	leaders, err := c.source.ListLeaders(ctx, country)
	if err != nil {
		res.report.Err = err
		return res
	}

	enriched, stats := c.enricher.Enrich(ctx, country, leaders)
	if err := ctx.Err(); err != nil {
		// Enrichment was cut short; do not commit a half-enriched country.
		res.report.Err = err
		return res
	}

	res.leaders = enriched
	res.report.Leaders = len(enriched)
	res.report.Enrich = stats
	return res
}
