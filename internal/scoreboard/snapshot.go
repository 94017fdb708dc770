package scoreboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/skullking-companion/internal/domain"
	"github.com/park285/skullking-companion/internal/obslog"
	"go.uber.org/zap"
)

// ErrMalformed marks a game document whose players or rounds are not sequences.
var ErrMalformed = errors.New("malformed game state")

// Kind tags whether a decoded field held a well-formed sequence.
type Kind int

const (
	Sequence Kind = iota
	Malformed
)

type PlayerList struct {
	Kind  Kind
	Names []string
}

type RoundList struct {
	Kind   Kind
	Rounds []domain.Round
}

// Snapshot is an untrusted game document parsed at the aggregation boundary.
type Snapshot struct {
	Players PlayerList
	Rounds  RoundList
}

// Err reports which parts of the snapshot were malformed, or nil.
func (s Snapshot) Err() error {
	switch {
	case s.Players.Kind == Malformed && s.Rounds.Kind == Malformed:
		return fmt.Errorf("%w: players and rounds", ErrMalformed)
	case s.Players.Kind == Malformed:
		return fmt.Errorf("%w: players", ErrMalformed)
	case s.Rounds.Kind == Malformed:
		return fmt.Errorf("%w: rounds", ErrMalformed)
	}
	return nil
}

// Decode parses a raw game document. Only undecodable JSON is an error;
// shape problems are recorded as Malformed variants.
func Decode(raw []byte) (Snapshot, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Snapshot{Players: PlayerList{Kind: Malformed}, Rounds: RoundList{Kind: Malformed}}, fmt.Errorf("decode game: %w", err)
	}
	return Snapshot{Players: decodePlayers(doc["players"]), Rounds: decodeRounds(doc["rounds"])}, nil
}

func isArray(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '['
}

func decodePlayers(raw json.RawMessage) PlayerList {
	if !isArray(raw) {
		return PlayerList{Kind: Malformed}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return PlayerList{Kind: Malformed}
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if err := json.Unmarshal(it, &s); err != nil {
			continue
		}
		names = append(names, s)
	}
	return PlayerList{Kind: Sequence, Names: names}
}

type rawResult struct {
	TricksWon     *int     `json:"tricks_won"`
	BonusPoints   *int     `json:"bonus_points"`
	PenaltyPoints *int     `json:"penalty_points"`
	RoundScore    *float64 `json:"round_score"`
}

func decodeRounds(raw json.RawMessage) RoundList {
	if !isArray(raw) {
		return RoundList{Kind: Malformed}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return RoundList{Kind: Malformed}
	}
	rounds := make([]domain.Round, 0, len(items))
	for i, it := range items {
		var obj struct {
			RoundNum int                        `json:"round_num"`
			Results  map[string]json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(it, &obj); err != nil || obj.Results == nil {
			continue
		}
		r := domain.Round{Number: obj.RoundNum, Results: make(map[string]domain.RoundResult, len(obj.Results))}
		if r.Number == 0 {
			r.Number = i + 1
		}
		for player, rr := range obj.Results {
			var res rawResult
			if err := json.Unmarshal(rr, &res); err != nil || res.RoundScore == nil {
				continue
			}
			r.Results[player] = domain.RoundResult{
				TricksWon:     deref(res.TricksWon),
				BonusPoints:   deref(res.BonusPoints),
				PenaltyPoints: deref(res.PenaltyPoints),
				RoundScore:    int(*res.RoundScore),
			}
		}
		rounds = append(rounds, r)
	}
	return RoundList{Kind: Sequence, Rounds: rounds}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// AggregateSnapshot aggregates an untrusted snapshot. Malformed input yields an
// empty result and a warning log, never an error.
func AggregateSnapshot(s Snapshot) []PlayerSummary {
	if err := s.Err(); err != nil {
		obslog.L().Warn("scoreboard_malformed_state", zap.Error(err))
		return []PlayerSummary{}
	}
	return Aggregate(s.Players.Names, s.Rounds.Rounds)
}

// AggregateRaw decodes and aggregates in one step.
func AggregateRaw(raw []byte) []PlayerSummary {
	s, err := Decode(raw)
	if err != nil {
		obslog.L().Warn("scoreboard_decode_failed", zap.Error(err))
		return []PlayerSummary{}
	}
	return AggregateSnapshot(s)
}
