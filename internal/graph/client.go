package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"

	"github.com/swaanand-ops/outlook-mail-reader/internal/instrumentation"
	"github.com/swaanand-ops/outlook-mail-reader/internal/logging"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// maxPageSize is the Graph API limit for $top.
const maxPageSize = 999

// TokenProvider supplies bearer tokens for Graph requests. Invalidate is
// called when the API rejects a token so the provider can refresh on the
// next call.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Invalidate()
}

// RetryPolicy bounds the per-page retry loop.
type RetryPolicy struct {
	// InitialInterval is the base backoff delay. Default 500ms.
	InitialInterval time.Duration
	// MaxInterval caps the backoff delay. Default 30s.
	MaxInterval time.Duration
	// MaxAttempts is the total number of tries per page fetch. Default 5.
	MaxAttempts uint
}

// DefaultRetryPolicy returns the standard retry bounds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		MaxAttempts:     5,
	}
}

// Client lists mailbox messages from Microsoft Graph.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	retry   RetryPolicy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Graph endpoint, mainly for tests.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithRetryPolicy overrides the retry bounds.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.retry = p }
}

// NewClient creates a Graph client authenticated through the token provider.
func NewClient(tokens TokenProvider, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		logger:  slog.Default(),
		retry:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForeachMessage streams messages matching the query in server order,
// invoking fn for each. Pages are fetched lazily one at a time; fn returning
// ErrStop ends the iteration without requesting further pages. Any other
// error from fn aborts and is returned as-is.
func (c *Client) ForeachMessage(ctx context.Context, q Query, fn func(*Message) error) error {
	pageURL := c.firstPageURL(q)
	page := 0

	for pageURL != "" {
		page++
		res, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return err
		}
		c.logger.Debug("page fetched",
			logging.Operation("graph.list_messages"),
			logging.Page(page),
			slog.Int("messages", len(res.Value)))

		for _, msg := range res.Value {
			if err := fn(msg); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
		pageURL = res.NextLink
	}
	return nil
}

// ListMessages collects up to max messages matching the query. max <= 0
// means no limit.
func (c *Client) ListMessages(ctx context.Context, q Query, max int) ([]*Message, error) {
	var out []*Message
	err := c.ForeachMessage(ctx, q, func(m *Message) error {
		out = append(out, m)
		if max > 0 && len(out) >= max {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// firstPageURL builds the initial request URL; continuation URLs come back
// opaque from the server and are followed verbatim.
func (c *Client) firstPageURL(q Query) string {
	endpoint := c.baseURL + "/me/messages"
	if q.Folder != "" {
		endpoint = c.baseURL + "/me/mailFolders/" + url.PathEscape(q.Folder) + "/messages"
	}

	fields := q.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := url.Values{}
	params.Set("$select", strings.Join(fields, ","))
	params.Set("$orderby", "receivedDateTime DESC")
	params.Set("$top", strconv.Itoa(pageSize))
	if q.Sender != "" {
		// OData string literals escape single quotes by doubling them.
		escaped := strings.ReplaceAll(q.Sender, "'", "''")
		params.Set("$filter", fmt.Sprintf("from/emailAddress/address eq '%s'", escaped))
	}
	return endpoint + "?" + params.Encode()
}

// fetchPage retrieves one page, retrying transient failures with jittered
// exponential backoff. A Retry-After header overrides the computed delay.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*listResponse, error) {
	attempts := 0
	operation := func() (*listResponse, error) {
		attempts++
		return c.doPage(ctx, pageURL)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.Multiplier = 2
	b.MaxInterval = c.retry.MaxInterval

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.retry.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.metrics.RecordGraphRetry(ctx, "list_messages")
			c.logger.Warn("page fetch failed, retrying",
				logging.Operation("graph.list_messages"),
				logging.Attempt(attempts),
				slog.Duration("backoff", next),
				logging.Err(err))
		}),
	)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.Attempts = attempts
		}
		return nil, fmt.Errorf("page fetch failed after %d attempts: %w", attempts, err)
	}
	return res, nil
}

// doPage performs a single page request and classifies the outcome for the
// retry loop: transient errors are returned bare, terminal ones wrapped in
// backoff.Permanent, and rate limits with a server hint carry RetryAfter.
func (c *Client) doPage(ctx context.Context, pageURL string) (*listResponse, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to obtain token: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// Network failures are transient.
		return nil, err
	}
	defer resp.Body.Close()
	c.metrics.RecordGraphRequest(ctx, "list_messages", resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, backoff.Permanent(&APIError{
				StatusCode: resp.StatusCode,
				Message:    "malformed response body",
				Body:       bodySnippet(body),
			})
		}
		return &page, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var graphErr struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &graphErr) == nil && graphErr.Error.Code != "" {
		apiErr.Code = graphErr.Error.Code
		apiErr.Message = graphErr.Error.Message
	} else {
		apiErr.Body = bodySnippet(body)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.tokens.Invalidate()
		return nil, backoff.Permanent(apiErr)
	case apiErr.Transient():
		if d := retryAfter(resp); d > 0 {
			return nil, fmt.Errorf("%w: %w", apiErr, &backoff.RetryAfterError{Duration: d})
		}
		return nil, apiErr
	default:
		return nil, backoff.Permanent(apiErr)
	}
}

// retryAfter parses a Retry-After header, given either as delta seconds or
// as an HTTP date.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func bodySnippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
