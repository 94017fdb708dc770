package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/skullking-companion/internal/domain"
	"github.com/park285/skullking-companion/pkg/scoredto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client talks to the remote scoring service. Only GETs are retried;
// state-changing calls fail fast and leave retry to the operator.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDial overrides the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		logger:         zap.NewNop(),
		defaultTimeout: 8 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func gamePath(gameID string, parts ...string) string {
	p := "/games/" + url.PathEscape(strings.TrimSpace(gameID))
	for _, s := range parts {
		p += "/" + s
	}
	return p
}

func roundPath(gameID string, round int, action string) string {
	return gamePath(gameID, "rounds", fmt.Sprint(round), action)
}

// CreateGame registers a new game and returns the echoed session.
func (c *Client) CreateGame(ctx context.Context, players []string) (*domain.GameSession, error) {
	var g scoredto.Game
	if err := c.doJSON(ctx, "create_game", fasthttp.MethodPost, "/games/", scoredto.CreateGameRequest{Players: players}, &g, false); err != nil {
		return nil, err
	}
	if strings.TrimSpace(g.GameID) == "" {
		return nil, &TransportError{Op: "create_game", Err: errors.New("response missing game_id")}
	}
	return ToDomain(g), nil
}

// OpenRound asks the service to start round n. The service treats repeats as no-ops.
func (c *Client) OpenRound(ctx context.Context, gameID string, round int) error {
	return c.doJSON(ctx, "open_round", fasthttp.MethodPost, roundPath(gameID, round, "start"), nil, nil, false)
}

func (c *Client) SubmitBids(ctx context.Context, gameID string, round int, bids map[string]int) error {
	return c.doJSON(ctx, "submit_bids", fasthttp.MethodPost, roundPath(gameID, round, "bids"), bids, nil, false)
}

// SubmitResults closes round n and returns the session with scores filled in.
func (c *Client) SubmitResults(ctx context.Context, gameID string, round int, results map[string]scoredto.ResultEntry) (*domain.GameSession, error) {
	var g scoredto.Game
	if err := c.doJSON(ctx, "submit_results", fasthttp.MethodPost, roundPath(gameID, round, "results"), results, &g, false); err != nil {
		return nil, err
	}
	return ToDomain(g), nil
}

func (c *Client) GetGame(ctx context.Context, gameID string) (*domain.GameSession, error) {
	var g scoredto.Game
	if err := c.doJSON(ctx, "get_game", fasthttp.MethodGet, gamePath(gameID), nil, &g, true); err != nil {
		return nil, err
	}
	return ToDomain(g), nil
}

// GetGameRaw returns the undecoded game document for tolerant aggregation.
func (c *Client) GetGameRaw(ctx context.Context, gameID string) ([]byte, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, "get_game", fasthttp.MethodGet, gamePath(gameID), nil, &raw, true); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	reqID := uuid.NewString()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-Request-Id", reqID)
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr *TransportError
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &TransportError{Op: op, Err: err}
		}
		lastErr = nil
		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			lastErr = &TransportError{Op: op, Err: err}
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			lastErr = &TransportError{Op: op, Status: status, Detail: detailFrom(resp.Body())}
		}

		if lastErr == nil {
			c.logger.Debug("scoring_request_ok", zap.String("op", op), zap.String("request_id", reqID), zap.Int("attempt", attempt))
			if out != nil {
				if err := json.Unmarshal(resp.Body(), out); err != nil {
					return &TransportError{Op: op, Status: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
				}
			}
			return nil
		}

		c.logger.Warn("scoring_request_failed",
			zap.String("op", op),
			zap.String("request_id", reqID),
			zap.Int("attempt", attempt),
			zap.Int("status", lastErr.Status),
			zap.Error(lastErr),
		)
		if attempt == attempts || !lastErr.Retryable() {
			break
		}
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			break
		}
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
