package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Ada", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Seen-UA", r.UserAgent())
		_, _ = w.Write([]byte(`<html><head><title> Ada
			Lovelace </title></head><body><p>Ada.</p></body></html>`))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.UserAgent() + "|" + r.Header.Get("Accept-Language")))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// --- StaticFetcher Tests ---

func TestStaticFetcher_Fetch(t *testing.T) {
	srv := newPageServer(t)
	f := NewStatic(StaticConfig{})

	got, err := f.Fetch(context.Background(), srv.URL+"/wiki/Ada", Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", got.StatusCode)
	}
	if got.Title != "Ada Lovelace" {
		t.Errorf("Title = %q, want %q", got.Title, "Ada Lovelace")
	}
	if got.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", got.ContentType)
	}
	if got.FetchedAt.IsZero() {
		t.Error("FetchedAt is zero")
	}
}

func TestStaticFetcher_UserAgentAndHeaders(t *testing.T) {
	srv := newPageServer(t)
	f := NewStatic(StaticConfig{UserAgent: "configured"})

	got, err := f.Fetch(context.Background(), srv.URL+"/echo", Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.HTML != "configured|" {
		t.Errorf("HTML = %q, want configured agent", got.HTML)
	}

	got, err = f.Fetch(context.Background(), srv.URL+"/echo", Options{
		UserAgent: "override",
		Headers:   map[string]string{"Accept-Language": "fr"},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.HTML != "override|fr" {
		t.Errorf("HTML = %q, want %q", got.HTML, "override|fr")
	}
}

func TestStaticFetcher_StatusError(t *testing.T) {
	srv := newPageServer(t)
	f := NewStatic(StaticConfig{})

	_, err := f.Fetch(context.Background(), srv.URL+"/missing", Options{})
	if err == nil {
		t.Fatal("Fetch() error = nil, want status error")
	}

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a *StatusError", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", se.StatusCode)
	}
	if !errors.Is(err, ErrBadStatus) {
		t.Error("errors.Is(err, ErrBadStatus) = false")
	}
}

func TestStaticFetcher_ContextCanceled(t *testing.T) {
	srv := newPageServer(t)
	f := NewStatic(StaticConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, srv.URL+"/slow", Options{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Fetch() error = %v, want deadline exceeded", err)
	}
}

func TestStaticFetcher_RateLimited(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	f := NewStatic(StaticConfig{RequestsPerSecond: 20, Burst: 1})

	start := time.Now()
	for range 3 {
		if _, err := f.Fetch(context.Background(), srv.URL, Options{}); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("3 fetches at 20 rps took %v, want >= ~100ms", elapsed)
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
}

func TestStaticFetcher_Type(t *testing.T) {
	f := NewStatic(StaticConfig{})
	if f.Type() != "static" {
		t.Errorf("Type() = %q", f.Type())
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewStatic_Defaults(t *testing.T) {
	f := NewStatic(StaticConfig{})
	if f.config.UserAgent != defaultUserAgent {
		t.Errorf("UserAgent = %q", f.config.UserAgent)
	}
	if f.config.Timeout != 20*time.Second {
		t.Errorf("Timeout = %v", f.config.Timeout)
	}
}
