package console

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// feedServer pushes the given commands, collects one reply per command,
// then closes normally.
func feedServer(t *testing.T, commands []string, replies chan<- string, gotHeader chan<- string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotHeader != nil {
			gotHeader <- r.Header.Get("X-Operator")
		}
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		for _, cmd := range commands {
			if err := wsjson.Write(ctx, c, Frame{Text: cmd}); err != nil {
				return
			}
			var f Frame
			if err := wsjson.Read(ctx, c, &f); err != nil {
				return
			}
			replies <- f.Text
		}
		_ = c.Close(websocket.StatusNormalClosure, "done")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSFeedRoundTrip(t *testing.T) {
	replies := make(chan string, 2)
	headers := make(chan string, 1)
	srv := feedServer(t, []string{"help", "board"}, replies, headers)

	feed := NewWSFeed(wsURL(srv), 0, WithFeedHeaders(func() map[string]string {
		return map[string]string{"X-Operator": "op-1"}
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := feed.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer feed.Close(context.Background())
	if got := <-headers; got != "op-1" {
		t.Fatalf("handshake header missing: %q", got)
	}

	for _, want := range []string{"help", "board"} {
		line, err := feed.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if line != want {
			t.Fatalf("got %q want %q", line, want)
		}
		if err := feed.Reply(ctx, "ack "+line); err != nil {
			t.Fatalf("Reply: %v", err)
		}
		if got := <-replies; got != "ack "+want {
			t.Fatalf("server got %q", got)
		}
	}

	if _, err := feed.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after normal close, got %v", err)
	}
}

func TestWSFeedDrivesDispatcher(t *testing.T) {
	replies := make(chan string, 3)
	srv := feedServer(t, []string{"new Ann Bob", "bid Ann=1 Bob=0", "board"}, replies, nil)

	feed := NewWSFeed(wsURL(srv), 0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := feed.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer feed.Close(context.Background())

	f := newFixture(t)
	if err := f.d.Run(ctx, feed); err != nil {
		t.Fatalf("Run: %v", err)
	}
	mustContain(t, <-replies, "New game g-42")
	mustContain(t, <-replies, "Bids locked for round 1.")
	mustContain(t, <-replies, "Captain's Log")
}

func TestWSFeedDialFailure(t *testing.T) {
	feed := NewWSFeed("ws://127.0.0.1:1/none", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := feed.Connect(ctx); err == nil {
		t.Fatalf("expected dial error")
	}
	if feed.State() != FeedFailed {
		t.Fatalf("expected failed state, got %s", feed.State())
	}
	if err := feed.Reply(ctx, "x"); err == nil {
		t.Fatalf("expected reply error without connection")
	}
}
