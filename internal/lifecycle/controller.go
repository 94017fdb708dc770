package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/park285/skullking-companion/internal/bonus"
	"github.com/park285/skullking-companion/internal/domain"
	"github.com/park285/skullking-companion/internal/roundinput"
	"github.com/park285/skullking-companion/pkg/scoredto"
	"go.uber.org/zap"
)

type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseBid      Phase = "BID"
	PhaseResult   Phase = "RESULT"
	PhaseGameOver Phase = "GAME_OVER"
)

var (
	ErrTransitionInFlight = errors.New("another transition is in flight")
	ErrGameOver           = errors.New("game is over")
	ErrWrongPhase         = errors.New("not allowed in current phase")
	ErrNoGame             = errors.New("no game in progress")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrUnknownCategory    = errors.New("unknown bonus category")
	// ErrOpenPending is joined with the service error when results were
	// accepted but the next round could not be opened.
	ErrOpenPending = errors.New("next round not opened yet")
)

// Service is the scoring-service contract the controller drives.
type Service interface {
	CreateGame(ctx context.Context, players []string) (*domain.GameSession, error)
	OpenRound(ctx context.Context, gameID string, round int) error
	SubmitBids(ctx context.Context, gameID string, round int, bids map[string]int) error
	SubmitResults(ctx context.Context, gameID string, round int, results map[string]scoredto.ResultEntry) (*domain.GameSession, error)
}

// State is a read-only view of the controller.
type State struct {
	GameID    string
	Phase     Phase
	Round     int
	NeedsOpen bool
	Busy      bool
}

// scratch holds per-round transient input. It is never mutated in place;
// every change installs a new value.
type scratch struct {
	bonuses map[string]bonus.Selection
}

func emptyScratch() scratch { return scratch{bonuses: map[string]bonus.Selection{}} }

// Controller drives BID(n) -> RESULT(n) -> BID(n+1) ... -> GAME_OVER for one game.
type Controller struct {
	svc    Service
	logger *zap.Logger
	busy   atomic.Bool

	mu        sync.Mutex
	session   *domain.GameSession
	phase     Phase
	round     int
	bids      roundinput.BidMap
	scratch   scratch
	needsOpen bool
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewController(svc Service, opts ...Option) *Controller {
	c := &Controller{svc: svc, logger: zap.NewNop(), phase: PhaseIdle, scratch: emptyScratch()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// begin claims the single transition slot; the returned func releases it.
func (c *Controller) begin() (func(), error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrTransitionInFlight
	}
	return func() { c.busy.Store(false) }, nil
}

func (c *Controller) stateLocked() State {
	st := State{Phase: c.phase, Round: c.round, NeedsOpen: c.needsOpen, Busy: c.busy.Load()}
	if c.session != nil {
		st.GameID = c.session.ID
	}
	return st
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Session returns a deep copy of the current game, or nil before Start.
func (c *Controller) Session() *domain.GameSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Bids returns the accepted bids of the current round.
func (c *Controller) Bids() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.bids))
	for k, v := range c.bids {
		out[k] = v
	}
	return out
}

// Bonuses returns a copy of the scratch bonus selections.
func (c *Controller) Bonuses() map[string]bonus.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]bonus.Selection, len(c.scratch.bonuses))
	for p, sel := range c.scratch.bonuses {
		out[p] = sel.Clone()
	}
	return out
}

// Start creates a new game, discarding any previous one, and opens round 1.
// If round 1 cannot be opened the game is kept in BID(1) with NeedsOpen set.
func (c *Controller) Start(ctx context.Context, players []string) (State, error) {
	release, err := c.begin()
	if err != nil {
		return c.State(), err
	}
	defer release()

	names := domain.NormalizePlayers(players)
	if err := domain.ValidatePlayers(names); err != nil {
		return c.State(), err
	}
	tid := uuid.NewString()

	session, err := c.svc.CreateGame(ctx, names)
	if err != nil {
		c.logger.Warn("game_create_failed", zap.String("transition_id", tid), zap.Error(err))
		return c.State(), err
	}
	if session == nil {
		return c.State(), fmt.Errorf("create game: empty session")
	}
	if len(session.Players) == 0 {
		session.Players = names
	}
	session = session.Clone()

	openErr := c.svc.OpenRound(ctx, session.ID, 1)

	c.mu.Lock()
	c.session = session
	c.phase = PhaseBid
	c.round = 1
	c.bids = nil
	c.scratch = emptyScratch()
	c.needsOpen = openErr != nil
	st := c.stateLocked()
	c.mu.Unlock()

	c.logger.Info("game_started",
		zap.String("transition_id", tid),
		zap.String("game_id", session.ID),
		zap.Strings("players", session.Players),
	)
	if openErr != nil {
		c.logger.Warn("round_open_failed", zap.String("game_id", session.ID), zap.Int("round", 1), zap.Error(openErr))
		return st, fmt.Errorf("%w: %w", ErrOpenPending, openErr)
	}
	return st, nil
}

func (c *Controller) checkPhaseLocked(want Phase) error {
	switch {
	case c.phase == PhaseGameOver:
		return ErrGameOver
	case c.session == nil || c.phase == PhaseIdle:
		return ErrNoGame
	case c.phase != want:
		return fmt.Errorf("%w: %s(%d)", ErrWrongPhase, c.phase, c.round)
	}
	return nil
}

// SubmitBids validates and forwards bids for the current round.
// On any failure the state stays at BID(n) and the bids are dropped.
func (c *Controller) SubmitBids(ctx context.Context, raw map[string]string) (State, error) {
	release, err := c.begin()
	if err != nil {
		return c.State(), err
	}
	defer release()

	c.mu.Lock()
	if err := c.checkPhaseLocked(PhaseBid); err != nil {
		st := c.stateLocked()
		c.mu.Unlock()
		return st, err
	}
	gameID, round, needsOpen := c.session.ID, c.round, c.needsOpen
	players := append([]string(nil), c.session.Players...)
	c.mu.Unlock()

	bids, err := roundinput.ValidateBids(players, raw)
	if err != nil {
		return c.State(), err
	}

	if needsOpen {
		if err := c.svc.OpenRound(ctx, gameID, round); err != nil {
			c.logger.Warn("round_open_failed", zap.String("game_id", gameID), zap.Int("round", round), zap.Error(err))
			return c.State(), err
		}
		c.mu.Lock()
		c.needsOpen = false
		c.mu.Unlock()
	}

	if err := c.svc.SubmitBids(ctx, gameID, round, map[string]int(bids)); err != nil {
		c.logger.Warn("round_bids_failed", zap.String("game_id", gameID), zap.Int("round", round), zap.Error(err))
		return c.State(), err
	}

	c.mu.Lock()
	c.bids = bids
	c.session.Rounds = withBids(c.session.Rounds, round, bids)
	c.phase = PhaseResult
	c.scratch = emptyScratch()
	st := c.stateLocked()
	c.mu.Unlock()

	c.logger.Info("round_bids_submitted", zap.String("game_id", gameID), zap.Int("round", round))
	return st, nil
}

// ToggleBonus advances one bonus counter for player during RESULT(n).
func (c *Controller) ToggleBonus(player string, cat bonus.Category) (bonus.Selection, error) {
	parsed, ok := bonus.ParseCategory(string(cat))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// SubmitResults reads scratch under mu after claiming the slot.
	if c.busy.Load() {
		return nil, ErrTransitionInFlight
	}
	if err := c.checkPhaseLocked(PhaseResult); err != nil {
		return nil, err
	}
	if !c.session.HasPlayer(player) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, player)
	}

	next := make(map[string]bonus.Selection, len(c.scratch.bonuses)+1)
	for p, sel := range c.scratch.bonuses {
		next[p] = sel
	}
	next[player] = bonus.Apply(c.scratch.bonuses[player], parsed)
	c.scratch = scratch{bonuses: next}
	return next[player].Clone(), nil
}

// SubmitResults validates tricks, attaches bonuses and closes the round.
// After round 10 the controller enters GAME_OVER; otherwise it opens the
// next round. A failed open keeps the accepted results and returns an error
// matching ErrOpenPending.
func (c *Controller) SubmitResults(ctx context.Context, raw map[string]string) (State, error) {
	release, err := c.begin()
	if err != nil {
		return c.State(), err
	}
	defer release()

	c.mu.Lock()
	if err := c.checkPhaseLocked(PhaseResult); err != nil {
		st := c.stateLocked()
		c.mu.Unlock()
		return st, err
	}
	gameID, round := c.session.ID, c.round
	players := append([]string(nil), c.session.Players...)
	bonuses := c.scratch.bonuses
	c.mu.Unlock()

	results, err := roundinput.ValidateResults(players, raw, round, bonuses)
	if err != nil {
		return c.State(), err
	}

	updated, err := c.svc.SubmitResults(ctx, gameID, round, toWire(results))
	if err != nil {
		c.logger.Warn("round_results_failed", zap.String("game_id", gameID), zap.Int("round", round), zap.Error(err))
		return c.State(), err
	}

	c.mu.Lock()
	if updated != nil {
		if updated.ID == "" {
			updated.ID = gameID
		}
		if len(updated.Players) == 0 {
			updated.Players = players
		}
		c.session = updated.Clone()
	} else {
		c.session.Rounds = withResults(c.session.Rounds, round, results)
	}
	c.bids = nil
	c.scratch = emptyScratch()
	if round >= domain.MaxRounds {
		c.phase = PhaseGameOver
		c.session.Status = domain.StatusCompleted
		st := c.stateLocked()
		c.mu.Unlock()
		c.logger.Info("game_over", zap.String("game_id", gameID))
		return st, nil
	}
	c.phase = PhaseBid
	c.round = round + 1
	c.needsOpen = true
	c.mu.Unlock()

	c.logger.Info("round_results_submitted", zap.String("game_id", gameID), zap.Int("round", round))

	openErr := c.svc.OpenRound(ctx, gameID, round+1)
	c.mu.Lock()
	c.needsOpen = openErr != nil
	st := c.stateLocked()
	c.mu.Unlock()
	if openErr != nil {
		c.logger.Warn("round_open_failed", zap.String("game_id", gameID), zap.Int("round", round+1), zap.Error(openErr))
		return st, fmt.Errorf("%w: %w", ErrOpenPending, openErr)
	}
	return st, nil
}

func toWire(results roundinput.ResultMap) map[string]scoredto.ResultEntry {
	out := make(map[string]scoredto.ResultEntry, len(results))
	for p, e := range results {
		out[p] = scoredto.ResultEntry{TricksWon: e.TricksWon, BonusPoints: e.BonusPoints, PenaltyPoints: e.PenaltyPoints}
	}
	return out
}

func findRound(rounds []domain.Round, n int) int {
	for i, r := range rounds {
		if r.Number == n {
			return i
		}
	}
	return -1
}

func withBids(rounds []domain.Round, n int, bids roundinput.BidMap) []domain.Round {
	m := make(map[string]int, len(bids))
	for p, b := range bids {
		m[p] = b
	}
	if i := findRound(rounds, n); i >= 0 {
		rounds[i].Bids = m
		return rounds
	}
	return append(rounds, domain.Round{Number: n, Bids: m})
}

// withResults records results locally when the service returned no document.
// RoundScore is unknown here and left at 0.
func withResults(rounds []domain.Round, n int, results roundinput.ResultMap) []domain.Round {
	m := make(map[string]domain.RoundResult, len(results))
	for p, e := range results {
		m[p] = domain.RoundResult{TricksWon: e.TricksWon, BonusPoints: e.BonusPoints, PenaltyPoints: e.PenaltyPoints}
	}
	if i := findRound(rounds, n); i >= 0 {
		rounds[i].Results = m
		return rounds
	}
	return append(rounds, domain.Round{Number: n, Results: m})
}
