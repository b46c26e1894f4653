// Package biography retrieves a leader's encyclopedia page and extracts the
// cleaned lead paragraph.
package biography

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jmylchreest/countryleaders/internal/cache"
	"github.com/jmylchreest/countryleaders/internal/logger"
	"github.com/jmylchreest/countryleaders/pkg/cleaner"
	"github.com/jmylchreest/countryleaders/pkg/fetcher"
)

// Error types carried by Outcome.Err.
var (
	// ErrNoURL means the leader has no usable page URL; nothing was fetched.
	ErrNoURL = errors.New("no page url")
	// ErrNoParagraph means the page had no paragraph long enough to be a biography.
	ErrNoParagraph = errors.New("no qualifying paragraph")
)

// Config holds biography fetching settings.
type Config struct {
	MinLength  int           // minimum paragraph length in characters
	RetryDelay time.Duration // wait before the single retry
	Timeout    time.Duration // per-request timeout
	UserAgent  string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinLength:  60,
		RetryDelay: 500 * time.Millisecond,
		Timeout:    20 * time.Second,
		UserAgent:  "Mozilla/5.0",
	}
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSanitizer sets the rule applied to the chosen paragraph.
func WithSanitizer(rule cleaner.Rule) Option {
	return func(f *Fetcher) {
		if rule != nil {
			f.sanitizer = rule
		}
	}
}

// WithCache enables paragraph caching keyed by page URL.
func WithCache(c cache.Cache) Option {
	return func(f *Fetcher) {
		f.cache = c
	}
}

// WithConfig replaces the fetch settings; zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(f *Fetcher) {
		if cfg.MinLength > 0 {
			f.config.MinLength = cfg.MinLength
		}
		if cfg.RetryDelay > 0 {
			f.config.RetryDelay = cfg.RetryDelay
		}
		if cfg.Timeout > 0 {
			f.config.Timeout = cfg.Timeout
		}
		if cfg.UserAgent != "" {
			f.config.UserAgent = cfg.UserAgent
		}
	}
}

// Outcome is the result of one lookup. Paragraph is nil whenever Err is set.
type Outcome struct {
	Paragraph *string
	Err       error
	Cached    bool
}

// Fetcher extracts lead paragraphs. It is safe for concurrent use.
type Fetcher struct {
	pages     fetcher.Fetcher
	sanitizer cleaner.Rule
	cache     cache.Cache
	config    Config
}

// New creates a Fetcher that downloads pages with pages.
func New(pages fetcher.Fetcher, opts ...Option) *Fetcher {
	f := &Fetcher{
		pages:     pages,
		sanitizer: cleaner.NewSanitizer(cleaner.Default()),
		config:    DefaultConfig(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchFirstParagraph returns the cleaned lead paragraph of the page at
// pageURL, or nil if there is none or anything went wrong.
func (f *Fetcher) FetchFirstParagraph(ctx context.Context, pageURL string) *string {
	return f.Lookup(ctx, pageURL).Paragraph
}

// Lookup is FetchFirstParagraph with the failure reason kept.
func (f *Fetcher) Lookup(ctx context.Context, pageURL string) Outcome {
	pageURL = strings.TrimSpace(pageURL)
	if !isPageURL(pageURL) {
		return Outcome{Err: ErrNoURL}
	}

	log := logger.Component("biography").With("url", pageURL)
	key := cacheKey(pageURL)

	if f.cache != nil {
		if v, ok, err := f.cache.Get(ctx, key); err != nil {
			log.Debug("cache read failed", "error", err)
		} else if ok {
			return Outcome{Paragraph: &v, Cached: true}
		}
	}

	content, err := f.fetch(ctx, pageURL)
	if err != nil {
		log.Debug("page fetch failed", "error", err)
		return Outcome{Err: err}
	}

	text, ok := FirstParagraph(content.HTML, f.config.MinLength, f.sanitizer)
	if !ok {
		log.Debug("no qualifying paragraph", "html_size", len(content.HTML))
		return Outcome{Err: ErrNoParagraph}
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, text); err != nil {
			log.Debug("cache write failed", "error", err)
		}
	}
	return Outcome{Paragraph: &text}
}

// fetch downloads the page, retrying once after RetryDelay.
func (f *Fetcher) fetch(ctx context.Context, pageURL string) (fetcher.Content, error) {
	opts := fetcher.Options{
		UserAgent: f.config.UserAgent,
		Timeout:   f.config.Timeout,
	}

	var content fetcher.Content
	op := func() error {
		c, err := f.pages.Fetch(ctx, pageURL, opts)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(err)
			}
			return err
		}
		content = c
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(f.config.RetryDelay), 1), ctx)
	notify := func(err error, wait time.Duration) {
		logger.Debug("page fetch retrying", "url", pageURL, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return fetcher.Content{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return content, nil
}

func isPageURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
