package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/park285/skullking-companion/pkg/scoredto"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type recorded struct {
	method string
	path   string
	body   string
	reqID  string
	apiKey string
}

type fakeService struct {
	mu       sync.Mutex
	calls    []recorded
	failures int // number of 503s to return before succeeding
}

func (f *fakeService) handle(ctx *fasthttp.RequestCtx) {
	f.mu.Lock()
	f.calls = append(f.calls, recorded{
		method: string(ctx.Method()),
		path:   string(ctx.Path()),
		body:   string(ctx.PostBody()),
		reqID:  string(ctx.Request.Header.Peek("X-Request-Id")),
		apiKey: string(ctx.Request.Header.Peek("X-API-Key")),
	})
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	ctx.SetContentType("application/json")
	if fail {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		ctx.SetBodyString(`{"detail":"busy"}`)
		return
	}
	switch string(ctx.Path()) {
	case "/games/":
		ctx.SetBodyString(`{"game_id":"g1","players":["Ann","Bob"],"status":"ACTIVE","rounds":[]}`)
	case "/games/g1/rounds/1/start", "/games/g1/rounds/1/bids":
		ctx.SetBodyString(`{"ok":true}`)
	case "/games/g1/rounds/1/results", "/games/g1":
		ctx.SetBodyString(`{"game_id":"g1","players":["Ann","Bob"],"status":"ACTIVE","rounds":[
			{"round_num":1,"cards_dealt":1,"bids":{"Ann":1,"Bob":0},
			 "results":{"Ann":{"tricks_won":1,"bid":1,"bonus_points":0,"penalty_points":0,"round_score":20},
			            "Bob":{"tricks_won":0,"bid":0,"bonus_points":0,"penalty_points":0,"round_score":10}}}]}`)
	case "/games/g1/rounds/2/bids":
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"detail":"Round 2 not started"}`)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString(`{"detail":"Game not found"}`)
	}
}

func (f *fakeService) snapshot() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.calls...)
}

func newTestClient(t *testing.T, svc *fakeService, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: svc.handle}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	base := []Option{
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		WithTimeout(2 * time.Second),
	}
	return NewClient("http://scoring.test/", append(base, opts...)...)
}

func TestCreateGameSendsPlayers(t *testing.T) {
	svc := &fakeService{}
	c := newTestClient(t, svc, WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-API-Key": "secret", "": "ignored"}
	}))

	g, err := c.CreateGame(context.Background(), []string{"Ann", "Bob"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if g.ID != "g1" || len(g.Players) != 2 {
		t.Fatalf("unexpected session: %+v", g)
	}
	calls := svc.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	var body scoredto.CreateGameRequest
	if err := json.Unmarshal([]byte(calls[0].body), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if calls[0].method != "POST" || len(body.Players) != 2 || body.Players[0] != "Ann" {
		t.Fatalf("unexpected request: %+v", calls[0])
	}
	if calls[0].reqID == "" || calls[0].apiKey != "secret" {
		t.Fatalf("headers not set: %+v", calls[0])
	}
}

func TestRoundCallsHitRoundPaths(t *testing.T) {
	svc := &fakeService{}
	c := newTestClient(t, svc)
	ctx := context.Background()

	if err := c.OpenRound(ctx, "g1", 1); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if err := c.SubmitBids(ctx, "g1", 1, map[string]int{"Ann": 1, "Bob": 0}); err != nil {
		t.Fatalf("SubmitBids: %v", err)
	}
	g, err := c.SubmitResults(ctx, "g1", 1, map[string]scoredto.ResultEntry{
		"Ann": {TricksWon: 1},
		"Bob": {TricksWon: 0},
	})
	if err != nil {
		t.Fatalf("SubmitResults: %v", err)
	}
	if len(g.Rounds) != 1 || g.Rounds[0].Results["Ann"].RoundScore != 20 {
		t.Fatalf("unexpected rounds: %+v", g.Rounds)
	}

	want := []string{"/games/g1/rounds/1/start", "/games/g1/rounds/1/bids", "/games/g1/rounds/1/results"}
	calls := svc.snapshot()
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, p := range want {
		if calls[i].path != p {
			t.Fatalf("call %d: path %q want %q", i, calls[i].path, p)
		}
	}
	var sent map[string]scoredto.ResultEntry
	if err := json.Unmarshal([]byte(calls[2].body), &sent); err != nil {
		t.Fatalf("results body: %v", err)
	}
	if sent["Ann"].TricksWon != 1 || sent["Bob"].PenaltyPoints != 0 {
		t.Fatalf("unexpected results body: %s", calls[2].body)
	}
}

func TestRejectedCallCarriesDetail(t *testing.T) {
	svc := &fakeService{}
	c := newTestClient(t, svc)

	err := c.SubmitBids(context.Background(), "g1", 2, map[string]int{"Ann": 0})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Status != 400 || te.Detail != "Round 2 not started" || te.Retryable() {
		t.Fatalf("unexpected error: %+v", te)
	}
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport match")
	}
}

func TestPostsAreNotRetried(t *testing.T) {
	svc := &fakeService{failures: 1}
	c := newTestClient(t, svc, WithRetry(3))

	if err := c.OpenRound(context.Background(), "g1", 1); err == nil {
		t.Fatalf("expected failure")
	}
	if n := len(svc.snapshot()); n != 1 {
		t.Fatalf("POST was retried: %d calls", n)
	}
}

func TestGetGameRetriesUnavailable(t *testing.T) {
	svc := &fakeService{failures: 2}
	c := newTestClient(t, svc, WithRetry(3))

	g, err := c.GetGame(context.Background(), "g1")
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if g.ClosedRounds() != 1 {
		t.Fatalf("expected 1 closed round, got %d", g.ClosedRounds())
	}
	if n := len(svc.snapshot()); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}

	raw, err := c.GetGameRaw(context.Background(), "g1")
	if err != nil || len(raw) == 0 {
		t.Fatalf("GetGameRaw: %v", err)
	}
}

func TestUnknownGameIsNotFound(t *testing.T) {
	c := newTestClient(t, &fakeService{})
	_, err := c.GetGame(context.Background(), "nope")
	var te *TransportError
	if !errors.As(err, &te) || te.Status != 404 || te.Detail != "Game not found" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCanceledContextFailsFast(t *testing.T) {
	svc := &fakeService{}
	c := newTestClient(t, svc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CreateGame(ctx, []string{"Ann", "Bob"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := len(svc.snapshot()); n != 0 {
		t.Fatalf("expected no calls, got %d", n)
	}
}

func TestBackoffDoubles(t *testing.T) {
	if backoffDuration(1) != 100*time.Millisecond || backoffDuration(2) != 200*time.Millisecond {
		t.Fatalf("unexpected backoff")
	}
	if backoffDuration(10) != backoffDuration(6) {
		t.Fatalf("backoff should cap")
	}
}
