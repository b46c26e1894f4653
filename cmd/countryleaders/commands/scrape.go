package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/countryleaders/internal/logger"
	"github.com/jmylchreest/countryleaders/internal/output"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape leaders and their biography paragraphs",
	Long: `Fetch the leaders of each country from the API and attach the first
paragraph of every leader's Wikipedia article, cleaned of references and
phonetic transcriptions.

Countries are processed one at a time; the leaders of a country are
enriched concurrently. A country whose leaders cannot be fetched is
skipped. Output targets are chosen by file extension: .json, .jsonl,
.yaml, .csv, .db/.sqlite.

Examples:
  # Every country, default outputs
  countryleaders scrape

  # Selected countries, JSONL and SQLite
  countryleaders scrape -c be -c fr -o leaders.jsonl -o leaders.db

  # Cache paragraphs in Redis between runs
  countryleaders scrape --cache redis --redis-addr localhost:6379`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()

	// Scope
	flags.StringSliceP("country", "c", nil, "country code(s) to scrape (default: all)")
	flags.Bool("sniff-cookie", true, "treat leader responses mentioning \"cookie\" as an expired session")

	// Enrichment
	flags.IntP("workers", "w", 8, "concurrent page fetches per country")
	flags.String("mode", "threads", "execution mode: threads, processes, sequential")
	flags.Duration("page-timeout", 30*time.Second, "Wikipedia page timeout")
	flags.Duration("retry-delay", 500*time.Millisecond, "delay before retrying a failed page fetch")
	flags.Int("min-length", 60, "minimum paragraph length in characters")
	flags.Float64("rate-limit", 0, "max page requests per second (0=unlimited)")
	flags.String("max-page-size", "5MB", "max page size (e.g., 512KB, 5MB, 0=default)")
	flags.String("preset", "default", "sanitizer preset: default, extended, none")

	// Cache
	flags.String("cache", "none", "paragraph cache: none, memory, redis")
	flags.Int("cache-size", 4096, "memory cache entries")
	flags.Duration("cache-ttl", 24*time.Hour, "cache entry lifetime")
	flags.String("redis-addr", "", "Redis address for --cache redis")

	// Output
	flags.StringSliceP("output", "o", nil, "output file(s) (default: leaders.json and leaders.csv)")
	flags.String("output-dir", ".", "directory for relative output paths")
	flags.Bool("pretty", true, "indent JSON output")

	for key, flag := range map[string]string{
		"countries":            "country",
		"sniff_cookie":         "sniff-cookie",
		"workers":              "workers",
		"mode":                 "mode",
		"page_timeout":         "page-timeout",
		"retry_delay":          "retry-delay",
		"min_paragraph_length": "min-length",
		"rate_limit":           "rate-limit",
		"max_page_size":        "max-page-size",
		"preset":               "preset",
		"cache":                "cache",
		"cache_size":           "cache-size",
		"cache_ttl":            "cache-ttl",
		"redis_addr":           "redis-addr",
		"output":               "output",
		"output_dir":           "output-dir",
		"pretty":               "pretty",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, progressPrinter())
	if err != nil {
		logError("%v", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close", "error", err)
		}
	}()

	result, report, runErr := a.coordinator.Run(ctx, cfg.CountryCodes())
	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		logError("%v", runErr)
		return runErr
	}

	// Save what was committed even after an interrupt.
	if err := output.SaveAll(context.WithoutCancel(ctx), result, cfg.Targets(), cfg.WriterOptions()...); err != nil {
		logError("%v", err)
		return err
	}

	leaders, withParagraph := result.Stats()
	logInfo("%s countries, %s leaders, %s with biography, %d skipped in %s",
		humanize.Comma(int64(report.Committed)),
		humanize.Comma(int64(leaders)),
		humanize.Comma(int64(withParagraph)),
		report.Skipped,
		report.Duration.Round(time.Millisecond))

	if interrupted {
		return runErr
	}
	return nil
}
