// Package fetcher defines the interface for web page fetching.
// Implement the Fetcher interface to plug in a different transport
// (for example a recording fetcher in tests).
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources.
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static").
	Type() string
}

// Options controls fetching behavior for a single request.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// ErrBadStatus matches any StatusError.
// Check with errors.Is(err, fetcher.ErrBadStatus).
var ErrBadStatus = errors.New("unexpected status")

// StatusError reports a response with a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is makes errors.Is(err, ErrBadStatus) true for every StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrBadStatus
}
