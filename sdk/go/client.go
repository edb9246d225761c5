package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"pointsrank/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the points HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// AddPoints applies delta to a user's total with the given reason and
// returns the resulting points transition.
func (c *Client) AddPoints(ctx context.Context, userID string, delta int64, reason string) (PointsResult, error) {
	if strings.TrimSpace(userID) == "" {
		return PointsResult{}, ErrEmptyUserID
	}

	u, err := url.Parse(fmt.Sprintf("%s/users/%s/points", c.baseURL, url.PathEscape(userID)))
	if err != nil {
		return PointsResult{}, err
	}
	q := u.Query()
	q.Set("delta", fmt.Sprintf("%d", delta))
	q.Set("reason", reason)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return PointsResult{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PointsResult{}, err
	}
	defer resp.Body.Close()

	var body PointsResult
	if err := decodeJSON(resp, &body); err != nil {
		return PointsResult{}, err
	}
	if !body.Success {
		return PointsResult{}, errors.New("points not applied")
	}
	return body, nil
}

// LoginBonus claims the daily login bonus for a user. Granted is false
// when the bonus was already claimed today.
func (c *Client) LoginBonus(ctx context.Context, userID string) (LoginBonusResult, error) {
	if strings.TrimSpace(userID) == "" {
		return LoginBonusResult{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/login-bonus", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return LoginBonusResult{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LoginBonusResult{}, err
	}
	defer resp.Body.Close()

	var body LoginBonusResult
	if err := decodeJSON(resp, &body); err != nil {
		return LoginBonusResult{}, err
	}
	return body, nil
}

// GetUser fetches the current score, rank and next-rank progress for a user.
func (c *Client) GetUser(ctx context.Context, userID string) (UserScore, error) {
	if strings.TrimSpace(userID) == "" {
		return UserScore{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return UserScore{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UserScore{}, err
	}
	defer resp.Body.Close()

	var score UserScore
	if err := decodeJSON(resp, &score); err != nil {
		return UserScore{}, err
	}
	return score, nil
}

// Activity returns the newest activity entries for a user, at most limit.
func (c *Client) Activity(ctx context.Context, userID string, limit int) ([]ActivityEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	u, err := url.Parse(fmt.Sprintf("%s/users/%s/activity", c.baseURL, url.PathEscape(userID)))
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		q := u.Query()
		q.Set("limit", fmt.Sprintf("%d", limit))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []ActivityEntry
	if err := decodeJSON(resp, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Leaderboard returns the top n users by points.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	u, err := url.Parse(c.baseURL + "/leaderboard")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		q := u.Query()
		q.Set("n", fmt.Sprintf("%d", n))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []LeaderboardEntry
	if err := decodeJSON(resp, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeUpdates connects to the WebSocket stream and emits points
// updates. The returned channel closes when ctx is done or the
// connection drops.
func (c *Client) SubscribeUpdates(ctx context.Context) (<-chan core.PointsUpdate, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.PointsUpdate, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var update core.PointsUpdate
				if err := conn.ReadJSON(&update); err != nil {
					return
				}
				select {
				case out <- update:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
