package lifecycle

import (
	"errors"
	"fmt"

	"github.com/park285/skullking-companion/internal/domain"
	"github.com/park285/skullking-companion/internal/roundinput"
	"go.uber.org/zap"
)

var ErrBadSnapshot = errors.New("invalid controller snapshot")

// Snapshot is the resumable part of a controller. Bonus scratch is not kept.
type Snapshot struct {
	Session   *domain.GameSession `json:"session"`
	Phase     Phase               `json:"phase"`
	Round     int                 `json:"round"`
	Bids      map[string]int      `json:"bids,omitempty"`
	NeedsOpen bool                `json:"needs_open"`
}

// Export captures the controller. ok is false before a game was started.
func (c *Controller) Export() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.phase == PhaseIdle {
		return Snapshot{}, false
	}
	s := Snapshot{
		Session:   c.session.Clone(),
		Phase:     c.phase,
		Round:     c.round,
		NeedsOpen: c.needsOpen,
	}
	if len(c.bids) > 0 {
		s.Bids = make(map[string]int, len(c.bids))
		for k, v := range c.bids {
			s.Bids[k] = v
		}
	}
	return s, true
}

// Restore replaces the controller state with s.
func (c *Controller) Restore(s Snapshot) error {
	if err := s.validate(); err != nil {
		return err
	}
	release, err := c.begin()
	if err != nil {
		return err
	}
	defer release()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s.Session.Clone()
	c.phase = s.Phase
	c.round = s.Round
	c.needsOpen = s.NeedsOpen && s.Phase == PhaseBid
	c.bids = nil
	if s.Phase == PhaseResult {
		c.bids = make(roundinput.BidMap, len(s.Bids))
		for k, v := range s.Bids {
			c.bids[k] = v
		}
	}
	c.scratch = emptyScratch()
	c.logger.Info("controller_restored", zap.String("game_id", c.session.ID), zap.String("phase", string(c.phase)), zap.Int("round", c.round))
	return nil
}

func (s Snapshot) validate() error {
	if s.Session == nil || s.Session.ID == "" {
		return fmt.Errorf("%w: missing session", ErrBadSnapshot)
	}
	if err := domain.ValidatePlayers(s.Session.Players); err != nil {
		return fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	if s.Round < 1 || s.Round > domain.MaxRounds {
		return fmt.Errorf("%w: round %d", ErrBadSnapshot, s.Round)
	}
	switch s.Phase {
	case PhaseBid, PhaseResult, PhaseGameOver:
	default:
		return fmt.Errorf("%w: phase %q", ErrBadSnapshot, s.Phase)
	}
	return nil
}
