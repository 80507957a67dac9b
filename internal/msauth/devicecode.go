package msauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/swaanand-ops/outlook-mail-reader/internal/instrumentation"
	"github.com/swaanand-ops/outlook-mail-reader/internal/logging"
)

const (
	deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"

	// RFC 8628 device flow states returned by the token endpoint.
	codeAuthorizationPending = "authorization_pending"
	codeSlowDown             = "slow_down"
	codeAccessDenied         = "access_denied"
	codeExpiredToken         = "expired_token"

	// slowDownIncrement is added to the poll interval when the provider
	// answers slow_down (RFC 8628 section 3.5).
	slowDownIncrement = 5 * time.Second

	defaultPollInterval = 5 * time.Second
	defaultCodeLifetime = 15 * time.Minute
)

// InitiateDeviceCode starts a new authorization request and returns the
// challenge the user must complete on a second device.
func (m *Manager) InitiateDeviceCode(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	if m.static {
		return nil, &ConfigError{Reason: "device flow is not available when a pre-obtained access token is supplied"}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.http)
	dc, err := m.cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start device flow: %w", err)
	}

	m.mu.Lock()
	m.pending = true
	m.mu.Unlock()

	m.logger.Info("device flow started",
		logging.Operation("msauth.device_code"),
		slog.Duration("expires_in", time.Until(dc.Expiry)))
	return dc, nil
}

// Poll blocks until the user completes sign-in, explicitly denies the
// request, the device code expires, or ctx is cancelled. It sleeps the
// provider's interval between attempts; "authorization still pending" is a
// normal continuation state, and slow_down stretches the interval. On
// success the token is cached and persisted.
func (m *Manager) Poll(ctx context.Context, dc *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := dc.Expiry
	if deadline.IsZero() {
		deadline = m.now().Add(defaultCodeLifetime)
	}

	defer func() {
		m.mu.Lock()
		m.pending = false
		m.mu.Unlock()
	}()

	for {
		if !m.now().Add(interval).Before(deadline) {
			m.metrics.RecordAuth(ctx, instrumentation.ResultTimeout)
			return nil, ErrAuthTimeout
		}
		if err := m.sleep(ctx, interval); err != nil {
			return nil, fmt.Errorf("device flow polling cancelled: %w", err)
		}

		resp, err := m.postTokenEndpoint(ctx, map[string]string{
			"grant_type":  deviceCodeGrant,
			"client_id":   m.cfg.ClientID,
			"device_code": dc.DeviceCode,
		})
		if err != nil {
			m.metrics.RecordAuth(ctx, instrumentation.ResultError)
			return nil, fmt.Errorf("device flow poll failed: %w", err)
		}

		switch resp.Error {
		case "":
			tok := resp.toToken(m.now())
			m.mu.Lock()
			m.token = tok
			m.persistLocked()
			m.mu.Unlock()

			m.metrics.RecordAuthPoll(ctx, logging.StatusSuccess)
			m.metrics.RecordAuth(ctx, instrumentation.ResultSuccess)
			m.logger.Info("device flow completed",
				logging.Operation("msauth.device_code"),
				logging.Status(logging.StatusSuccess))
			copyTok := *tok
			return &copyTok, nil

		case codeAuthorizationPending:
			m.metrics.RecordAuthPoll(ctx, codeAuthorizationPending)
			m.logger.Debug("authorization still pending",
				logging.Operation("msauth.device_code"))

		case codeSlowDown:
			interval += slowDownIncrement
			m.metrics.RecordAuthPoll(ctx, codeSlowDown)
			m.logger.Debug("provider requested slower polling",
				logging.Operation("msauth.device_code"),
				slog.Duration("interval", interval))

		case codeAccessDenied:
			m.metrics.RecordAuth(ctx, instrumentation.ResultDenied)
			return nil, ErrAuthDenied

		case codeExpiredToken:
			m.metrics.RecordAuth(ctx, instrumentation.ResultTimeout)
			return nil, ErrAuthTimeout

		default:
			m.metrics.RecordAuth(ctx, instrumentation.ResultError)
			return nil, &ProviderError{Code: resp.Error, Description: resp.ErrorDescription}
		}
	}
}

// Authenticate acquires a usable session silently when it can: a fresh
// cached token is reused as-is, an expired one goes through the refresh
// grant, and only when neither works does the interactive device flow run.
// prompt is invoked once with the challenge so the caller can show the
// verification URI and user code; the core never prints.
func (m *Manager) Authenticate(ctx context.Context, prompt func(*oauth2.DeviceAuthResponse)) error {
	_, err := m.Token(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNeedsReauth) {
		return err
	}

	dc, err := m.InitiateDeviceCode(ctx)
	if err != nil {
		return err
	}
	if prompt != nil {
		prompt(dc)
	}
	_, err = m.Poll(ctx, dc)
	return err
}

// tokenResponse is the token endpoint's wire shape for both the device-code
// and refresh-token grants. OAuth errors arrive with a 400 status and an
// error code in the body.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (r *tokenResponse) toToken(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if r.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return tok
}

func (m *Manager) postTokenEndpoint(ctx context.Context, params map[string]string) (*tokenResponse, error) {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("malformed token response (status %d): %w", resp.StatusCode, err)
	}
	if tr.Error == "" && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}
	return &tr, nil
}
