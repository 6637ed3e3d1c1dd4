// Package transport is the HTTP client every portal read and write goes
// through. It attaches the session token, enforces per-call timeouts and maps
// remote failures onto the portal error taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/middleware/requestid"
)

const (
	// DefaultReadTimeout bounds ordinary reads and writes.
	DefaultReadTimeout = 10 * time.Second
	// DefaultExportTimeout bounds report exports.
	DefaultExportTimeout = 30 * time.Second

	// StatusSessionExpired is the non-standard status some backends use for an
	// expired CSRF/session token.
	StatusSessionExpired = 419

	maxErrorBody = 64 << 10
)

// TokenSource yields the bearer token for the current session. An empty token
// sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// UnauthorizedFunc is invoked once per request rejected as unauthenticated.
type UnauthorizedFunc func(status int, reason string)

// Observer receives request timings.
type Observer interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	ReadTimeout   time.Duration
	ExportTimeout time.Duration
}

// Client performs JSON calls against the remote portal API.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	readTimeout    time.Duration
	exportTimeout  time.Duration
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc
	observer       Observer
	logger         *zap.Logger
	now            func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTokenSource attaches the session token provider.
func WithTokenSource(ts TokenSource) Option {
	return func(cl *Client) { cl.tokens = ts }
}

// WithUnauthorizedHandler registers the callback fired on 401/419 and on
// locally expired tokens.
func WithUnauthorizedHandler(fn UnauthorizedFunc) Option {
	return func(cl *Client) { cl.onUnauthorized = fn }
}

// WithObserver records request timings.
func WithObserver(o Observer) Option {
	return func(cl *Client) { cl.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// New builds a client for cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid remote base url %q", cfg.BaseURL)
	}
	c := &Client{
		baseURL:       base,
		http:          &http.Client{},
		readTimeout:   cfg.ReadTimeout,
		exportTimeout: cfg.ExportTimeout,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	if c.readTimeout <= 0 {
		c.readTimeout = DefaultReadTimeout
	}
	if c.exportTimeout <= 0 {
		c.exportTimeout = DefaultExportTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get issues a GET and decodes the JSON body into dest.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	body, _, err := c.do(ctx, http.MethodGet, path, query, nil, c.readTimeout)
	if err != nil {
		return err
	}
	return decode(body, dest)
}

// Send issues a write with a JSON payload and decodes the response into dest
// when dest is non-nil.
func (c *Client) Send(ctx context.Context, method, path string, payload, dest interface{}) error {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}
	body, _, err := c.do(ctx, method, path, nil, reader, c.readTimeout)
	if err != nil {
		return err
	}
	return decode(body, dest)
}

// Export fetches a binary report using the longer export timeout.
func (c *Client) Export(ctx context.Context, path string, query url.Values) ([]byte, string, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, c.exportTimeout)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, timeout time.Duration) ([]byte, string, error) {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" && c.tokenExpired(token) {
		c.unauthorized(0, "token expired")
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimLeft(path, "/")})
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestid.Header, requestid.FromContext(ctx))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, path, http.StatusServiceUnavailable, time.Since(start))
		return nil, "", c.transportError(ctx, err, method, path)
	}
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(resp.Body)
	c.observe(method, path, resp.StatusCode, time.Since(start))
	if readErr != nil {
		return nil, "", c.transportError(ctx, readErr, method, path)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return payload, resp.Header.Get("Content-Type"), nil
	}
	return nil, "", c.statusError(resp.StatusCode, payload, method, path)
}

func (c *Client) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens are validated by the server.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !c.now().Before(exp.Time)
}

func (c *Client) transportError(ctx context.Context, err error, method, path string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.logger.Warn("remote request timed out", zap.String("method", method), zap.String("path", path))
		return appErrors.Wrap(err, appErrors.CodeNetwork, appErrors.ErrNetwork.Status, "request timed out")
	}
	c.logger.Warn("remote request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
	return appErrors.Wrap(err, appErrors.CodeNetwork, appErrors.ErrNetwork.Status, "remote service unreachable")
}

type errorBody struct {
	Message              string   `json:"message"`
	Error                string   `json:"error"`
	CompletionPercentage *float64 `json:"completion_percentage"`
	Data                 *struct {
		CompletionPercentage *float64 `json:"completion_percentage"`
	} `json:"data"`
}

func (b errorBody) completion() (float64, bool) {
	if b.CompletionPercentage != nil {
		return *b.CompletionPercentage, true
	}
	if b.Data != nil && b.Data.CompletionPercentage != nil {
		return *b.Data.CompletionPercentage, true
	}
	return 0, false
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

func (c *Client) statusError(status int, payload []byte, method, path string) error {
	if len(payload) > maxErrorBody {
		payload = payload[:maxErrorBody]
	}
	var parsed errorBody
	_ = json.Unmarshal(payload, &parsed)

	switch {
	case status == http.StatusUnauthorized || status == StatusSessionExpired:
		c.unauthorized(status, parsed.text())
		return appErrors.Clone(appErrors.ErrUnauthorized, "session is no longer valid")
	case status == http.StatusForbidden:
		if pct, ok := parsed.completion(); ok {
			return appErrors.IncompleteData(pct)
		}
	}

	message := parsed.text()
	if message == "" {
		message = http.StatusText(status)
	}
	c.logger.Warn("remote request rejected",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("message", message),
	)
	e := appErrors.Clone(appErrors.ErrServer, message)
	e.Details = map[string]interface{}{"status": status}
	return e
}

func (c *Client) unauthorized(status int, reason string) {
	if c.onUnauthorized != nil {
		c.onUnauthorized(status, reason)
	}
}

func (c *Client) observe(method, path string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveHTTPRequest(method, "remote:"+path, status, d)
	}
}

func decode(body []byte, dest interface{}) error {
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return appErrors.Wrap(err, appErrors.CodeServer, appErrors.ErrServer.Status, "malformed response body")
	}
	return nil
}
