package scoreboard

import "github.com/park285/skullking-companion/internal/domain"

// PlayerSummary is a derived running total. It is recomputed on demand.
type PlayerSummary struct {
	Name    string
	Score   int
	History []int
}

// Aggregate folds closed rounds into per-player totals, in declared player order.
// Result players not in the roster are ignored.
func Aggregate(players []string, rounds []domain.Round) []PlayerSummary {
	out := make([]PlayerSummary, 0, len(players))
	index := make(map[string]int, len(players))
	for _, p := range players {
		if _, dup := index[p]; dup {
			continue
		}
		index[p] = len(out)
		out = append(out, PlayerSummary{Name: p, History: []int{}})
	}
	for _, r := range rounds {
		if !r.Closed() {
			continue
		}
		// iterate the roster, not the map, so history order is stable
		for _, s := range out {
			res, ok := r.Results[s.Name]
			if !ok {
				continue
			}
			i := index[s.Name]
			out[i].Score += res.RoundScore
			out[i].History = append(out[i].History, res.RoundScore)
		}
	}
	return out
}

// AggregateMap is Aggregate keyed by player name.
func AggregateMap(players []string, rounds []domain.Round) map[string]PlayerSummary {
	list := Aggregate(players, rounds)
	out := make(map[string]PlayerSummary, len(list))
	for _, s := range list {
		out[s.Name] = s
	}
	return out
}

// FromSession aggregates a live session. A nil session yields no rows.
func FromSession(g *domain.GameSession) []PlayerSummary {
	if g == nil {
		return []PlayerSummary{}
	}
	return Aggregate(g.Players, g.Rounds)
}

// Leaders returns every player sharing the top score. Ties are all winners.
func Leaders(summaries []PlayerSummary) []string {
	if len(summaries) == 0 {
		return nil
	}
	best := summaries[0].Score
	for _, s := range summaries[1:] {
		if s.Score > best {
			best = s.Score
		}
	}
	var out []string
	for _, s := range summaries {
		if s.Score == best {
			out = append(out, s.Name)
		}
	}
	return out
}
