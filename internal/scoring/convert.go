package scoring

import (
	"github.com/park285/skullking-companion/internal/domain"
	"github.com/park285/skullking-companion/pkg/scoredto"
)

// ToDomain converts the service document into the client session model.
// Rounds keep service order; a missing round_num falls back to position.
func ToDomain(g scoredto.Game) *domain.GameSession {
	out := &domain.GameSession{
		ID:      g.GameID,
		Players: append([]string(nil), g.Players...),
		Status:  domain.GameStatus(g.Status),
		Rounds:  make([]domain.Round, 0, len(g.Rounds)),
	}
	if out.Status == "" {
		out.Status = domain.StatusActive
	}
	for i, r := range g.Rounds {
		dr := domain.Round{Number: r.RoundNum}
		if dr.Number <= 0 {
			dr.Number = i + 1
		}
		if len(r.Bids) > 0 {
			dr.Bids = make(map[string]int, len(r.Bids))
			for p, b := range r.Bids {
				dr.Bids[p] = b
			}
		}
		if len(r.Results) > 0 {
			dr.Results = make(map[string]domain.RoundResult, len(r.Results))
			for p, res := range r.Results {
				dr.Results[p] = domain.RoundResult{
					TricksWon:     res.TricksWon,
					BonusPoints:   res.BonusPoints,
					PenaltyPoints: res.PenaltyPoints,
					RoundScore:    res.RoundScore,
				}
			}
		}
		out.Rounds = append(out.Rounds, dr)
	}
	return out
}
