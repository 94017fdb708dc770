package roundinput

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/skullking-companion/internal/bonus"
	"github.com/park285/skullking-companion/internal/domain"
)

// ErrValidation is matched by every input validation failure.
var ErrValidation = errors.New("round input invalid")

// InvalidNumericInputError names players whose entry is missing or not a
// non-negative integer.
type InvalidNumericInputError struct {
	Players []string
}

func (e *InvalidNumericInputError) Error() string {
	return "invalid numeric input for: " + strings.Join(e.Players, ", ")
}

func (e *InvalidNumericInputError) Is(target error) bool { return target == ErrValidation }

// TrickCountMismatchError reports that tricks won do not add up to the round size.
type TrickCountMismatchError struct {
	Expected int
	Actual   int
}

func (e *TrickCountMismatchError) Error() string {
	return fmt.Sprintf("total tricks won must equal %d, got %d", e.Expected, e.Actual)
}

func (e *TrickCountMismatchError) Is(target error) bool { return target == ErrValidation }

// BidMap is the validated player -> bid mapping.
type BidMap map[string]int

// Entry is one player's validated result, ready for submission.
type Entry struct {
	TricksWon     int
	BonusPoints   int
	PenaltyPoints int
}

// ResultMap is the validated player -> result mapping.
type ResultMap map[string]Entry

// ParseCount accepts a plain run of decimal digits, surrounding spaces allowed.
func ParseCount(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseAll(players []string, raw map[string]string) (map[string]int, error) {
	out := make(map[string]int, len(players))
	var bad []string
	for _, p := range players {
		v, ok := raw[p]
		if !ok {
			bad = append(bad, p)
			continue
		}
		n, ok := ParseCount(v)
		if !ok {
			bad = append(bad, p)
			continue
		}
		out[p] = n
	}
	if len(bad) > 0 {
		return nil, &InvalidNumericInputError{Players: bad}
	}
	return out, nil
}

// ValidateBids checks that every player has a non-negative integer bid.
// Bids are not cross-checked against the round size.
func ValidateBids(players []string, raw map[string]string) (BidMap, error) {
	vals, err := parseAll(players, raw)
	if err != nil {
		return nil, err
	}
	return BidMap(vals), nil
}

// ValidateResults checks trick counts per player and that they sum to roundNumber.
// Bonus totals are taken from the per-player selections; penalties stay 0.
func ValidateResults(players []string, raw map[string]string, roundNumber int, bonuses map[string]bonus.Selection) (ResultMap, error) {
	if roundNumber < 1 || roundNumber > domain.MaxRounds {
		return nil, fmt.Errorf("round %d outside 1..%d", roundNumber, domain.MaxRounds)
	}
	vals, err := parseAll(players, raw)
	if err != nil {
		return nil, err
	}
	sum := 0
	for _, p := range players {
		sum += vals[p]
	}
	if sum != roundNumber {
		return nil, &TrickCountMismatchError{Expected: roundNumber, Actual: sum}
	}
	out := make(ResultMap, len(players))
	for _, p := range players {
		out[p] = Entry{TricksWon: vals[p], BonusPoints: bonus.Total(bonuses[p])}
	}
	return out, nil
}
