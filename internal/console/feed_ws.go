package console

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Frame is the JSON shape of feed messages in both directions.
type Frame struct {
	Text string `json:"text"`
}

type FeedState string

const (
	FeedDisconnected FeedState = "disconnected"
	FeedConnecting   FeedState = "connecting"
	FeedConnected    FeedState = "connected"
	FeedReconnecting FeedState = "reconnecting"
	FeedFailed       FeedState = "failed"
)

// WSFeed receives operator commands from a WebSocket endpoint and writes
// replies back on the same connection.
type WSFeed struct {
	wsURL   string
	headers func() map[string]string
	logger  *zap.Logger

	connM sync.Mutex
	conn  *websocket.Conn
	state FeedState

	writeM sync.Mutex

	maxReconnectAttempts int
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

type FeedOption func(*WSFeed)

func WithFeedHeaders(h func() map[string]string) FeedOption {
	return func(f *WSFeed) { f.headers = h }
}

func WithFeedLogger(l *zap.Logger) FeedOption {
	return func(f *WSFeed) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithPingInterval(d time.Duration) FeedOption {
	return func(f *WSFeed) {
		if d > 0 {
			f.pingInterval = d
		}
	}
}

func NewWSFeed(wsURL string, maxReconnectAttempts int, opts ...FeedOption) *WSFeed {
	f := &WSFeed{
		wsURL:                wsURL,
		logger:               zap.NewNop(),
		state:                FeedDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.rootCtx, f.rootCancel = context.WithCancel(context.Background())
	return f
}

func (f *WSFeed) State() FeedState {
	f.connM.Lock()
	defer f.connM.Unlock()
	return f.state
}

func (f *WSFeed) setState(s FeedState) {
	f.connM.Lock()
	prev := f.state
	f.state = s
	f.connM.Unlock()
	if prev != s {
		f.logger.Info("feed_state", zap.String("from", string(prev)), zap.String("to", string(s)))
	}
}

func (f *WSFeed) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, f.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      f.buildHeaders(),
	})
	if err != nil {
		return err
	}
	f.connM.Lock()
	f.conn = conn
	f.state = FeedConnected
	f.connM.Unlock()
	f.logger.Info("feed_connected", zap.String("url", f.wsURL))
	return nil
}

// Connect dials the feed and starts the ping loop.
func (f *WSFeed) Connect(ctx context.Context) error {
	if f.State() == FeedConnected {
		return nil
	}
	f.setState(FeedConnecting)
	if err := f.dial(ctx); err != nil {
		f.setState(FeedFailed)
		return err
	}
	f.wg.Add(1)
	go f.pingLoop()
	return nil
}

func (f *WSFeed) current() *websocket.Conn {
	f.connM.Lock()
	defer f.connM.Unlock()
	return f.conn
}

// Next blocks for the next command frame. A dropped connection is redialed
// up to maxReconnectAttempts times; io.EOF is returned after Close.
func (f *WSFeed) Next(ctx context.Context) (string, error) {
	for {
		if f.isStopping() {
			return "", io.EOF
		}
		conn := f.current()
		if conn == nil {
			if err := f.reconnect(ctx); err != nil {
				return "", err
			}
			continue
		}
		var msg Frame
		err := wsjson.Read(ctx, conn, &msg)
		if err == nil {
			return msg.Text, nil
		}
		if f.isStopping() {
			return "", io.EOF
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			f.dropConn(conn, websocket.StatusNormalClosure, "closed by peer")
			f.setState(FeedDisconnected)
			return "", io.EOF
		}
		f.logger.Warn("feed_read_failed", zap.Error(err))
		f.dropConn(conn, websocket.StatusGoingAway, "reconnect")
		f.setState(FeedDisconnected)
	}
}

func (f *WSFeed) reconnect(ctx context.Context) error {
	if f.maxReconnectAttempts <= 0 {
		f.setState(FeedFailed)
		return errors.New("feed disconnected")
	}
	f.setState(FeedReconnecting)
	var lastErr error
	for attempt := 1; attempt <= f.maxReconnectAttempts; attempt++ {
		select {
		case <-f.stopCh:
			return io.EOF
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(feedBackoff(attempt)):
		}
		if lastErr = f.dial(ctx); lastErr == nil {
			return nil
		}
		f.logger.Warn("feed_reconnect_failed", zap.Int("attempt", attempt), zap.Error(lastErr))
	}
	f.setState(FeedFailed)
	return lastErr
}

// Reply writes one text frame. Writes are serialized.
func (f *WSFeed) Reply(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	conn := f.current()
	if conn == nil {
		return errors.New("feed not connected")
	}
	dctx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	f.writeM.Lock()
	defer f.writeM.Unlock()
	return wsjson.Write(dctx, conn, Frame{Text: text})
}

func (f *WSFeed) pingLoop() {
	defer f.wg.Done()
	t := time.NewTicker(f.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-f.stopCh:
			return
		case <-t.C:
			conn := f.current()
			if conn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(f.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 && !f.isStopping() {
				f.logger.Warn("feed_ping_failed", zap.Error(err))
				f.dropConn(conn, websocket.StatusGoingAway, "ping failure")
				failures = 0
			}
		}
	}
}

func (f *WSFeed) dropConn(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	f.connM.Lock()
	if f.conn == conn {
		f.conn = nil
	}
	f.connM.Unlock()
	_ = conn.Close(code, reason)
}

func (f *WSFeed) Close(ctx context.Context) error {
	f.stopOnce.Do(func() { close(f.stopCh) })
	if conn := f.current(); conn != nil {
		f.dropConn(conn, websocket.StatusNormalClosure, "close")
	}
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		f.rootCancel()
		f.setState(FeedDisconnected)
		return nil
	}
}

func (f *WSFeed) isStopping() bool {
	select {
	case <-f.stopCh:
		return true
	default:
		return false
	}
}

func (f *WSFeed) buildHeaders() http.Header {
	hdr := http.Header{}
	if f.headers == nil {
		return hdr
	}
	for k, v := range f.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}

func feedBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		attempt = 5
	}
	return time.Duration(1<<uint(attempt-1)) * 250 * time.Millisecond
}
