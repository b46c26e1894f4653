package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/countryleaders/internal/logger"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent string
	Timeout   time.Duration

	// MaxBodySize caps the bytes read per response (0 = colly default).
	MaxBodySize int

	// RequestsPerSecond limits request rate across all callers (0 = unlimited).
	RequestsPerSecond float64
	Burst             int
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:   defaultUserAgent,
		Timeout:     20 * time.Second,
		MaxBodySize: 10 << 20,
		Burst:       1,
	}
}

// Generic browser user agent; encyclopedia servers reject empty or library agents.
const defaultUserAgent = "Mozilla/5.0"

// StaticFetcher uses Colly for static HTML fetching.
// It implements the Fetcher interface and is safe for concurrent use.
type StaticFetcher struct {
	config  StaticConfig
	limiter *rate.Limiter
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	defaults := DefaultStaticConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Burst < 1 {
		cfg.Burst = defaults.Burst
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &StaticFetcher{
		config:  cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

// Fetch retrieves page content using Colly.
// Non-2xx responses are returned as *StatusError.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	logger.Debug("static fetch starting", "url", targetURL)

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return result, fmt.Errorf("rate limit wait: %w", err)
	}

	// Create a new collector for each request
	userAgent := coalesce(opts.UserAgent, f.config.UserAgent)
	collectorOpts := []colly.CollectorOption{
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	}
	if f.config.MaxBodySize > 0 {
		collectorOpts = append(collectorOpts, colly.MaxBodySize(f.config.MaxBodySize))
	}
	c := colly.NewCollector(collectorOpts...)
	logger.Debug("static fetch configured", "user_agent", userAgent)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)

	if len(opts.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range opts.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
			result.StatusCode = statusCode
		}
		if statusCode != 0 {
			fetchErr = &StatusError{URL: targetURL, StatusCode: statusCode}
		} else {
			fetchErr = fmt.Errorf("fetch error: %w", err)
		}
		logger.Debug("static fetch error", "status", statusCode, "error", err)
	})

	visitErr := c.Visit(targetURL)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	if fetchErr != nil {
		return result, fetchErr
	}
	if visitErr != nil {
		logger.Debug("static fetch visit failed", "url", targetURL, "error", visitErr)
		return result, fmt.Errorf("failed to visit URL: %w", visitErr)
	}

	if result.HTML != "" {
		result.Title = pageTitle(result.HTML)
	}

	logger.Debug("static fetch complete", "url", targetURL, "title", result.Title)
	return result, nil
}

// pageTitle returns the document <title>, or "" when the page cannot be parsed.
func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
