// Package api is the client for the cookie-authenticated country leaders API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jmylchreest/countryleaders/internal/logger"
	"github.com/jmylchreest/countryleaders/internal/model"
	"github.com/jmylchreest/countryleaders/internal/session"
)

// Error types for distinguishing failure reasons.
var (
	// ErrAuthExpired means the server rejected the session. The client recovers
	// from it by renewing the session, so callers only see it wrapped in a
	// FetchError when renewal itself was rejected.
	ErrAuthExpired = errors.New("session expired")

	// ErrTransientFetch marks a request that still failed after its retry.
	// Check with errors.Is(err, api.ErrTransientFetch).
	ErrTransientFetch = errors.New("transient fetch failure")
)

// FetchError describes a request that failed after its retry.
type FetchError struct {
	Op         string // "countries" or "leaders"
	Country    model.Country
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Country != "" {
		fmt.Fprintf(&b, " (%s)", e.Country)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both ErrTransientFetch and the underlying cause.
func (e *FetchError) Unwrap() []error {
	return []error{ErrTransientFetch, e.Err}
}

// Config holds API client settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// SniffCookie treats a leaders body mentioning "cookie" as a rejected
	// session even on a 2xx status.
	SniffCookie bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://country-leaders.onrender.com",
		Timeout:     20 * time.Second,
		SniffCookie: true,
	}
}

// Client fetches countries and leaders. It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	sessions *session.Manager
	sniff    bool
}

// New creates a Client that authenticates with sessions.
func New(cfg Config, sessions *session.Manager) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetCookieJar(nil)
	client.SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{http: client, sessions: sessions, sniff: cfg.SniffCookie}
}

// ListCountries returns the country codes the API knows about.
func (c *Client) ListCountries(ctx context.Context) ([]model.Country, error) {
	body, err := c.get(ctx, "countries", "", "/countries", nil, false)
	if err != nil {
		return nil, err
	}

	var countries []model.Country
	if err := json.Unmarshal(body, &countries); err != nil {
		return nil, &FetchError{Op: "countries", Err: fmt.Errorf("decode response: %w", err)}
	}
	return countries, nil
}

// ListLeaders returns the raw leader records for country. The records carry
// no first_paragraph yet.
func (c *Client) ListLeaders(ctx context.Context, country model.Country) ([]model.Leader, error) {
	params := map[string]string{"country": string(country)}
	body, err := c.get(ctx, "leaders", country, "/leaders", params, c.sniff)
	if err != nil {
		return nil, err
	}

	var leaders []model.Leader
	if err := json.Unmarshal(body, &leaders); err != nil {
		return nil, &FetchError{Op: "leaders", Country: country, Err: fmt.Errorf("decode response: %w", err)}
	}
	return leaders, nil
}

// get performs an authenticated GET. The first attempt uses the current
// session; if it is rejected, the session is renewed and the request is
// retried exactly once.
func (c *Client) get(ctx context.Context, op string, country model.Country, path string, params map[string]string, sniff bool) ([]byte, error) {
	log := logger.Component("api").With("op", op)
	if country != "" {
		log = log.With("country", country)
	}

	var (
		sess    *session.Session
		lastErr error
		status  int
	)

	for attempt := 1; attempt <= 2; attempt++ {
		var err error
		if attempt == 1 {
			sess, err = c.sessions.Current(ctx)
		} else {
			sess, err = c.sessions.Renew(ctx, sess)
		}
		if err != nil {
			return nil, &FetchError{Op: op, Country: country, Err: fmt.Errorf("obtain session: %w", err)}
		}

		req := c.http.R().SetContext(ctx).SetCookies(sess.Cookies())
		if len(params) > 0 {
			req.SetQueryParams(params)
		}

		resp, err := req.Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &FetchError{Op: op, Country: country, Err: ctx.Err()}
			}
			lastErr, status = err, 0
			log.Debug("request failed", "attempt", attempt, "error", err)
			continue
		}

		status = resp.StatusCode()
		switch {
		case !resp.IsSuccess():
			lastErr = fmt.Errorf("%w: status %d", ErrAuthExpired, status)
		case sniff && strings.Contains(strings.ToLower(resp.String()), "cookie"):
			lastErr = fmt.Errorf("%w: response mentions cookie", ErrAuthExpired)
		default:
			log.Debug("request succeeded", "attempt", attempt, "generation", sess.Generation)
			return resp.Body(), nil
		}
		log.Debug("session rejected", "attempt", attempt, "status", status, "generation", sess.Generation)
	}

	if errors.Is(lastErr, ErrAuthExpired) {
		lastErr = errors.New("session rejected after renewal")
	}
	return nil, &FetchError{Op: op, Country: country, StatusCode: status, Err: lastErr}
}
