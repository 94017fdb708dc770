package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinPlayers = 2
	MaxPlayers = 6
	MaxRounds  = 10
)

// GameStatus mirrors the status string reported by the scoring service.
type GameStatus string

const (
	StatusActive    GameStatus = "ACTIVE"
	StatusCompleted GameStatus = "COMPLETED"
)

var (
	ErrTooFewPlayers   = errors.New("at least 2 players are required")
	ErrTooManyPlayers  = errors.New("at most 6 players are allowed")
	ErrDuplicatePlayer = errors.New("player names must be unique")
	ErrBlankPlayer     = errors.New("player name must not be blank")
)

// GameSession is the client-side copy of one game. Rounds only grow.
type GameSession struct {
	ID      string
	Players []string
	Rounds  []Round
	Status  GameStatus
}

// Round holds bids and results for one hand. Round n deals n tricks.
type Round struct {
	Number  int
	Bids    map[string]int
	Results map[string]RoundResult
}

// RoundResult is one player's outcome. RoundScore is computed by the service.
type RoundResult struct {
	TricksWon     int
	BonusPoints   int
	PenaltyPoints int
	RoundScore    int
}

func (r Round) Open() bool   { return len(r.Bids) > 0 && len(r.Results) == 0 }
func (r Round) Closed() bool { return len(r.Results) > 0 }

// ClosedRounds returns how many rounds already carry results.
func (g *GameSession) ClosedRounds() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, r := range g.Rounds {
		if r.Closed() {
			n++
		}
	}
	return n
}

// HasPlayer reports whether name is one of the declared players.
func (g *GameSession) HasPlayer(name string) bool {
	if g == nil {
		return false
	}
	for _, p := range g.Players {
		if p == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshots never alias live maps.
func (g *GameSession) Clone() *GameSession {
	if g == nil {
		return nil
	}
	out := &GameSession{ID: g.ID, Status: g.Status}
	out.Players = append([]string(nil), g.Players...)
	out.Rounds = make([]Round, 0, len(g.Rounds))
	for _, r := range g.Rounds {
		cp := Round{Number: r.Number}
		if r.Bids != nil {
			cp.Bids = make(map[string]int, len(r.Bids))
			for k, v := range r.Bids {
				cp.Bids[k] = v
			}
		}
		if r.Results != nil {
			cp.Results = make(map[string]RoundResult, len(r.Results))
			for k, v := range r.Results {
				cp.Results[k] = v
			}
		}
		out.Rounds = append(out.Rounds, cp)
	}
	return out
}

// NormalizePlayers trims names and drops blanks, keeping order.
func NormalizePlayers(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if s := strings.TrimSpace(n); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValidatePlayers checks the 2..6 unique, non-blank roster rule.
func ValidatePlayers(names []string) error {
	if len(names) < MinPlayers {
		return ErrTooFewPlayers
	}
	if len(names) > MaxPlayers {
		return ErrTooManyPlayers
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return ErrBlankPlayer
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicatePlayer, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
