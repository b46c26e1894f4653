// Package session obtains and renews the short-lived cookie the leaders API
// requires on every request.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jmylchreest/countryleaders/internal/logger"
)

// ErrNoCookie is returned when the cookie endpoint answers without setting a cookie.
var ErrNoCookie = errors.New("cookie endpoint issued no cookie")

// Session is an immutable snapshot of issued cookies.
type Session struct {
	cookies    []*http.Cookie
	IssuedAt   time.Time
	Generation uint64
}

// Cookies returns a copy of the session cookies.
func (s *Session) Cookies() []*http.Cookie {
	if s == nil {
		return nil
	}
	out := make([]*http.Cookie, len(s.cookies))
	for i, c := range s.cookies {
		cp := *c
		out[i] = &cp
	}
	return out
}

// Names lists the cookie names, for logging.
func (s *Session) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.cookies))
	for i, c := range s.cookies {
		names[i] = c.Name
	}
	return names
}

// Config holds the cookie endpoint settings.
type Config struct {
	BaseURL   string
	Path      string
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://country-leaders.onrender.com",
		Path:    "/cookie",
		Timeout: 20 * time.Second,
	}
}

// Manager owns the current session. Readers never block on a refresh in progress;
// they see either the old or the new session, never a mix.
type Manager struct {
	http    *resty.Client
	path    string
	current atomic.Pointer[Session]
	gen     atomic.Uint64

	refreshMu sync.Mutex
}

// New creates a Manager. No request is made until the first Current or Refresh.
func New(cfg Config) *Manager {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Path == "" {
		cfg.Path = defaults.Path
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	// Cookies are attached explicitly per request from the current Session.
	client.SetCookieJar(nil)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Manager{http: client, path: cfg.Path}
}

// Current returns the active session, obtaining one first if none exists.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	if s := m.current.Load(); s != nil {
		return s, nil
	}
	return m.Renew(ctx, nil)
}

// Renew replaces stale with a fresh session. If another caller already
// replaced stale, the newer session is returned without a request.
func (m *Manager) Renew(ctx context.Context, stale *Session) (*Session, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	if cur := m.current.Load(); cur != nil && cur != stale {
		return cur, nil
	}
	return m.refreshLocked(ctx)
}

// Refresh unconditionally obtains a new session.
func (m *Manager) Refresh(ctx context.Context) (*Session, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) (*Session, error) {
	log := logger.Component("session")
	log.Debug("requesting session cookie", "path", m.path)

	resp, err := m.http.R().SetContext(ctx).Get(m.path)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", m.path, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("get %s: unexpected status %d", m.path, resp.StatusCode())
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return nil, ErrNoCookie
	}

	s := &Session{
		cookies:    cookies,
		IssuedAt:   time.Now(),
		Generation: m.gen.Add(1),
	}
	m.current.Store(s)

	log.Debug("session cookie issued", "generation", s.Generation, "cookies", s.Names())
	return s, nil
}

// Refreshes returns how many sessions have been issued so far.
func (m *Manager) Refreshes() uint64 {
	return m.gen.Load()
}
