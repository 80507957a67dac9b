package msauth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/swaanand-ops/outlook-mail-reader/internal/instrumentation"
	"github.com/swaanand-ops/outlook-mail-reader/internal/logging"
)

// DefaultScopes are requested when the caller does not override them.
// offline_access is required for the token endpoint to issue a refresh token.
var DefaultScopes = []string{
	"https://graph.microsoft.com/Mail.Read",
	"https://graph.microsoft.com/User.Read",
	"offline_access",
}

// expirySkew is subtracted from the token expiry when deciding whether a
// cached token is still usable, so a token does not expire mid-request.
const expirySkew = 30 * time.Second

// State describes the authentication session.
type State int

const (
	StateUnauthenticated State = iota
	StatePendingDeviceCode
	StateAuthenticated
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StatePendingDeviceCode:
		return "pending_device_code"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// Options configures a Manager.
type Options struct {
	TenantID string
	ClientID string

	// AccessToken, when set, bypasses the device flow entirely. The token
	// is used as-is and never refreshed.
	AccessToken string

	// Scopes defaults to DefaultScopes.
	Scopes []string

	// Endpoint defaults to the Entra ID endpoint for TenantID. Overridable
	// for tests.
	Endpoint oauth2.Endpoint

	// Store persists the token cache. Optional; without one the session
	// lives only in memory.
	Store Store

	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *instrumentation.Metrics
}

// Manager owns the device-code flow and the token cache lifecycle.
// It is safe for concurrent use: reads of a fresh cached token are cheap,
// while refresh and re-authentication are serialized through a single
// writer lock.
type Manager struct {
	cfg     *oauth2.Config
	store   Store
	http    *http.Client
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	// static marks a pre-obtained bypass token that must never be
	// refreshed or cleared by expiry handling.
	static bool

	mu      sync.Mutex
	token   *oauth2.Token
	pending bool

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager validates the options and builds a manager, loading any
// previously cached token from the store.
func NewManager(opts Options) (*Manager, error) {
	m := &Manager{
		store:   opts.Store,
		http:    opts.HTTPClient,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     time.Now,
		sleep:   sleepContext,
	}
	if m.http == nil {
		m.http = &http.Client{Timeout: 30 * time.Second}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	if opts.AccessToken != "" {
		m.static = true
		m.token = &oauth2.Token{
			AccessToken: opts.AccessToken,
			TokenType:   "Bearer",
		}
		return m, nil
	}

	if opts.TenantID == "" || opts.ClientID == "" {
		return nil, &ConfigError{Reason: "tenant ID and client ID are required when no access token is supplied"}
	}

	endpoint := opts.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = microsoft.AzureADEndpoint(opts.TenantID)
	}
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	m.cfg = &oauth2.Config{
		ClientID: opts.ClientID,
		Endpoint: endpoint,
		Scopes:   scopes,
	}

	if err := m.loadCache(); err != nil {
		return nil, err
	}
	return m, nil
}

// State reports the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.pending:
		return StatePendingDeviceCode
	case m.token == nil:
		return StateUnauthenticated
	case m.validLocked():
		return StateAuthenticated
	default:
		return StateExpired
	}
}

// Token returns a valid bearer token. A fresh cached token is returned
// without any network call; an expired one triggers exactly one silent
// refresh. When the refresh fails the cache is cleared and ErrNeedsReauth
// is returned.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != nil && m.validLocked() {
		tok := *m.token
		return &tok, nil
	}
	if m.static {
		// A bypass token has no refresh path.
		return nil, fmt.Errorf("supplied access token rejected or expired: %w", ErrNeedsReauth)
	}
	if m.token == nil {
		return nil, ErrNeedsReauth
	}
	if m.token.RefreshToken == "" {
		m.clearLocked()
		return nil, fmt.Errorf("cached token expired and carries no refresh token: %w", ErrNeedsReauth)
	}

	tok, err := m.refreshLocked(ctx)
	if err != nil {
		m.clearLocked()
		m.metrics.RecordTokenRefresh(ctx, instrumentation.ResultError)
		m.logger.Warn("token refresh failed",
			logging.Operation("msauth.refresh"),
			logging.Err(err))
		return nil, fmt.Errorf("token refresh failed: %v: %w", err, ErrNeedsReauth)
	}
	m.token = tok
	m.persistLocked()
	m.metrics.RecordTokenRefresh(ctx, instrumentation.ResultSuccess)
	m.logger.Debug("token refreshed",
		logging.Operation("msauth.refresh"),
		logging.Status(logging.StatusSuccess))

	copyTok := *m.token
	return &copyTok, nil
}

// Invalidate marks the cached token as expired. The retrieval client calls
// this when the API answers 401 so the next Token call refreshes.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil || m.static {
		return
	}
	m.token.Expiry = m.now().Add(-time.Second)
}

// Logout discards the cached session entirely, refresh token included, so
// the next authentication runs the device flow from scratch. A bypass token
// is left alone.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.static {
		return
	}
	m.clearLocked()
}

// validLocked reports whether the cached token is usable. A zero expiry
// (bypass token) never expires locally.
func (m *Manager) validLocked() bool {
	if m.token == nil || m.token.AccessToken == "" {
		return false
	}
	if m.token.Expiry.IsZero() {
		return true
	}
	return m.token.Expiry.Add(-expirySkew).After(m.now())
}

// refreshLocked performs one refresh-token grant. Callers hold m.mu, which
// is the single-writer discipline that keeps concurrent searches from
// invalidating one another's refresh tokens.
func (m *Manager) refreshLocked(ctx context.Context) (*oauth2.Token, error) {
	resp, err := m.postTokenEndpoint(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     m.cfg.ClientID,
		"refresh_token": m.token.RefreshToken,
		"scope":         strings.Join(m.cfg.Scopes, " "),
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &ProviderError{Code: resp.Error, Description: resp.ErrorDescription}
	}
	tok := resp.toToken(m.now())
	if tok.RefreshToken == "" {
		// Providers may omit the rotated refresh token; keep the old one.
		tok.RefreshToken = m.token.RefreshToken
	}
	return tok, nil
}

func (m *Manager) persistLocked() {
	if m.store == nil || m.token == nil {
		return
	}
	blob, err := json.Marshal(m.token)
	if err != nil {
		m.logger.Warn("failed to serialize token cache", logging.Err(err))
		return
	}
	if err := m.store.Save(blob); err != nil {
		m.logger.Warn("failed to persist token cache", logging.Err(err))
	}
}

func (m *Manager) clearLocked() {
	m.token = nil
	if m.store != nil {
		if err := m.store.Save(nil); err != nil {
			m.logger.Warn("failed to clear token cache", logging.Err(err))
		}
	}
}

func (m *Manager) loadCache() error {
	if m.store == nil {
		return nil
	}
	blob, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load token cache: %w", err)
	}
	if blob == nil {
		return nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(blob, &tok); err != nil {
		// A corrupt cache is treated as absent, not fatal.
		m.logger.Warn("discarding unreadable token cache", logging.Err(err))
		return m.store.Save(nil)
	}
	m.token = &tok
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
