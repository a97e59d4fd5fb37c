// Package client talks to the dine-in ordering backend on behalf of the
// customer and restaurant apps. It attaches the API key and bearer token to
// every request and transparently renews an expired access token: concurrent
// requests that hit a 401 share a single refresh call and are replayed once
// with the new token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"dine-in-ordering/cart"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const apiKeyHeader = "X-API-KEY"

// Config locates the backend.
type Config struct {
	BaseURL    string // API root, e.g. http://localhost:8000/api
	AuthURL    string // auth root, e.g. http://localhost:8000/api/auth
	APIKey     string
	HTTPClient *http.Client
}

// ConfigFromEnv reads API_URL, BACKEND_URL and API_KEY, falling back to the
// EXPO_PUBLIC_ names the apps ship with. An optional .env file is loaded first.
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	backend := firstEnv("http://localhost:8000/api/", "BACKEND_URL", "EXPO_PUBLIC_BACKEND_URL")
	return Config{
		BaseURL: strings.TrimSuffix(firstEnv("http://localhost:8000/api", "API_URL", "EXPO_PUBLIC_API_URL"), "/"),
		AuthURL: strings.TrimSuffix(backend, "/") + "/auth",
		APIKey:  firstEnv("", "API_KEY", "EXPO_PUBLIC_API_KEY"),
	}
}

func firstEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return fallback
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the logger; the default is zap.L().
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithLogoutHook registers fn to run when the session ends, either on an
// explicit Logout or because a token refresh failed.
func WithLogoutHook(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

// WithCartStore mirrors every cart the server returns into st, so a UI can
// subscribe to it.
func WithCartStore(st *cart.Store) Option {
	return func(c *Client) { c.cart = st }
}

type Client struct {
	cfg      Config
	http     *http.Client
	tokens   TokenStore
	log      *zap.Logger
	onLogout func()
	cart     *cart.Store
	refresh  singleflight.Group
}

func New(cfg Config, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		http:   cfg.HTTPClient,
		tokens: tokens,
		log:    zap.L(),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	c.cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	c.cfg.AuthURL = strings.TrimSuffix(cfg.AuthURL, "/")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens exposes the store backing the session.
func (c *Client) Tokens() TokenStore { return c.tokens }

// request describes one call. auth marks calls against AuthURL, which are
// never retried after a 401.
type request struct {
	method string
	path   string
	query  map[string]string
	body   any
	auth   bool
}

func (r request) target(cfg Config) string {
	base := cfg.BaseURL
	if r.auth {
		base = cfg.AuthURL
	}
	q := url.Values{}
	for k, v := range r.query {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return base + r.path
	}
	return base + r.path + "?" + q.Encode()
}

// do sends r, decoding a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	raw, err := c.send(ctx, r, false)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, r request, retried bool) ([]byte, error) {
	token, err := c.tokens.Get(KeyAccessToken)
	if err != nil {
		return nil, err
	}
	status, raw, err := c.roundTrip(ctx, r, token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized && !retried && !r.auth && !strings.Contains(r.path, "auth") {
		if err := c.renewAfter(ctx, token); err != nil {
			return nil, err
		}
		return c.send(ctx, r, true)
	}
	if status < 200 || status > 299 {
		return nil, &APIError{StatusCode: status, Method: r.method, Path: r.path, Body: raw}
	}
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, r request, token string) (int, []byte, error) {
	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.target(c.cfg), body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s: %w", r.method, r.path, err)
	}
	return resp.StatusCode, raw, nil
}

// renewAfter obtains a fresh access token after a request sent with stale
// was rejected. When another caller already replaced stale, nothing is done.
func (c *Client) renewAfter(ctx context.Context, stale string) error {
	current, err := c.tokens.Get(KeyAccessToken)
	if err != nil {
		return err
	}
	if current != "" && current != stale {
		return nil
	}
	_, err, _ = c.refresh.Do("refresh", func() (any, error) {
		return nil, c.refreshToken(context.WithoutCancel(ctx))
	})
	return err
}

type refreshResponse struct {
	Access   string `json:"access"`
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
}

// refreshToken exchanges the stored refresh token for a new access token.
// Any failure ends the session.
func (c *Client) refreshToken(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			c.log.Warn("token refresh failed, logging out", zap.Error(err))
			c.endSession()
		}
	}()

	refresh, err := c.tokens.Get(KeyRefreshToken)
	if err != nil {
		return err
	}
	if refresh == "" {
		return ErrRefreshTokenMissing
	}

	r := request{method: http.MethodPost, path: "/token/refresh/", body: map[string]string{"refresh": refresh}, auth: true}
	status, raw, err := c.roundTrip(ctx, r, "")
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &APIError{StatusCode: status, Method: r.method, Path: r.path, Body: raw}
	}
	var out refreshResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode refresh: %w", err)
	}
	if out.Access == "" {
		return fmt.Errorf("refresh: empty access token")
	}

	if err := c.tokens.Set(KeyAccessToken, out.Access); err != nil {
		return err
	}
	// user details are informational; losing them must not end the session
	if err := c.tokens.Set(KeyUserID, out.UserID); err != nil {
		c.log.Error("save user id", zap.Error(err))
	}
	if err := c.tokens.Set(KeyUserType, out.UserType); err != nil {
		c.log.Error("save user type", zap.Error(err))
	}
	c.log.Debug("access token refreshed", zap.String("user_id", out.UserID))
	return nil
}

// endSession wipes the stored credentials and notifies the logout hook.
func (c *Client) endSession() {
	if err := c.tokens.Delete(sessionKeys...); err != nil {
		c.log.Error("clear session", zap.Error(err))
	}
	if c.onLogout != nil {
		c.onLogout()
	}
}
