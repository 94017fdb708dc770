package scoredto

// CreateGameRequest is the body of POST /games/.
type CreateGameRequest struct {
	Players []string `json:"players"`
}

// Game is the scoring service's game document.
type Game struct {
	GameID  string   `json:"game_id"`
	Players []string `json:"players"`
	Date    string   `json:"date,omitempty"`
	Status  string   `json:"status"`
	Rounds  []Round  `json:"rounds"`
}

type Round struct {
	RoundNum   int                    `json:"round_num"`
	CardsDealt int                    `json:"cards_dealt"`
	Bids       map[string]int         `json:"bids"`
	Results    map[string]RoundResult `json:"results"`
}

// RoundResult carries the service-computed round_score alongside the inputs.
type RoundResult struct {
	TricksWon     int `json:"tricks_won"`
	Bid           int `json:"bid"`
	BonusPoints   int `json:"bonus_points"`
	PenaltyPoints int `json:"penalty_points"`
	RoundScore    int `json:"round_score"`
}

// ResultEntry is what the client sends per player when closing a round.
type ResultEntry struct {
	TricksWon     int `json:"tricks_won"`
	BonusPoints   int `json:"bonus_points"`
	PenaltyPoints int `json:"penalty_points"`
}

// ErrorBody is the {"detail": "..."} error shape returned on 4xx.
type ErrorBody struct {
	Detail string `json:"detail"`
}
