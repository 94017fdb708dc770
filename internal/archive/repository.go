package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/skullking-companion/internal/domain"
	"github.com/park285/skullking-companion/internal/scoreboard"
)

const schema = `CREATE TABLE IF NOT EXISTS skullking_scorecards (
    game_id     TEXT PRIMARY KEY,
    players     JSONB NOT NULL,
    totals      JSONB NOT NULL,
    history     JSONB NOT NULL,
    winners     JSONB NOT NULL,
    log         TEXT NOT NULL DEFAULT '',
    finished_at TIMESTAMPTZ NOT NULL
)`

// Scorecard is the archived summary of one finished game.
type Scorecard struct {
	GameID     string
	Players    []string
	Totals     map[string]int
	History    map[string][]int
	Winners    []string
	FinishedAt time.Time
}

// BuildScorecard projects a session into its archived form.
// Every player sharing the top total is a winner.
func BuildScorecard(g *domain.GameSession, finishedAt time.Time) Scorecard {
	card := Scorecard{
		Totals:     map[string]int{},
		History:    map[string][]int{},
		FinishedAt: finishedAt.UTC(),
	}
	if g == nil {
		return card
	}
	card.GameID = g.ID
	card.Players = append([]string(nil), g.Players...)
	summaries := scoreboard.FromSession(g)
	for _, s := range summaries {
		card.Totals[s.Name] = s.Score
		card.History[s.Name] = append([]int{}, s.History...)
	}
	card.Winners = scoreboard.Leaders(summaries)
	return card
}

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates the scorecard table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveScorecard upserts a finished game's scorecard.
func (r *Repository) SaveScorecard(ctx context.Context, card Scorecard) error {
	if r == nil || r.db == nil {
		return nil
	}
	args, err := card.args()
	if err != nil {
		return err
	}
	q := `INSERT INTO skullking_scorecards (
        game_id, players, totals, history, winners, log, finished_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7)
      ON CONFLICT (game_id) DO UPDATE SET
        players=EXCLUDED.players,
        totals=EXCLUDED.totals,
        history=EXCLUDED.history,
        winners=EXCLUDED.winners,
        log=EXCLUDED.log,
        finished_at=EXCLUDED.finished_at`
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (c Scorecard) args() ([]any, error) {
	if strings.TrimSpace(c.GameID) == "" {
		return nil, fmt.Errorf("scorecard without game id")
	}
	players, err := json.Marshal(nonNil(c.Players))
	if err != nil {
		return nil, err
	}
	totals, err := json.Marshal(c.Totals)
	if err != nil {
		return nil, err
	}
	history, err := json.Marshal(c.History)
	if err != nil {
		return nil, err
	}
	winners, err := json.Marshal(nonNil(c.Winners))
	if err != nil {
		return nil, err
	}
	return []any{c.GameID, string(players), string(totals), string(history), string(winners), buildLog(c), c.FinishedAt}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// buildLog renders a plain-text log, one line per closed round.
func buildLog(c Scorecard) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[Game \"%s\"]\n", sanitize(c.GameID)))
	b.WriteString(fmt.Sprintf("[Date \"%s\"]\n", c.FinishedAt.Format("2006.01.02")))
	b.WriteString(fmt.Sprintf("[Winners \"%s\"]\n\n", sanitize(strings.Join(c.Winners, ", "))))

	rounds := 0
	for _, p := range c.Players {
		if n := len(c.History[p]); n > rounds {
			rounds = n
		}
	}
	for i := 0; i < rounds; i++ {
		b.WriteString(fmt.Sprintf("%d.", i+1))
		for _, p := range c.Players {
			h := c.History[p]
			if i < len(h) {
				b.WriteString(fmt.Sprintf(" %s %+d", sanitize(p), h[i]))
			}
		}
		b.WriteString("\n")
	}
	for _, p := range c.Players {
		b.WriteString(fmt.Sprintf("= %s %d\n", sanitize(p), c.Totals[p]))
	}
	return b.String()
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
