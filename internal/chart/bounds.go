package chart

import "github.com/park285/skullking-companion/internal/scoreboard"

const (
	scoreCeilingFloor = 100
	scoreFloorCap     = 0
	defaultRange      = 100
)

// Bounds is the vertical scale of the progress chart.
type Bounds struct {
	Min   int
	Max   int
	Range int
}

// Cumulative returns running totals with a leading 0 for round 0.
func Cumulative(history []int) []int {
	out := make([]int, 0, len(history)+1)
	sum := 0
	out = append(out, 0)
	for _, v := range history {
		sum += v
		out = append(out, sum)
	}
	return out
}

// DeriveBounds scans every cumulative point. Max never drops below 100 and
// Min never rises above 0; a zero range becomes 100.
func DeriveBounds(summaries []scoreboard.PlayerSummary) Bounds {
	b := Bounds{Min: scoreFloorCap, Max: scoreCeilingFloor}
	for _, s := range summaries {
		for _, v := range Cumulative(s.History) {
			if v > b.Max {
				b.Max = v
			}
			if v < b.Min {
				b.Min = v
			}
		}
	}
	b.Range = b.Max - b.Min
	if b.Range == 0 {
		b.Range = defaultRange
	}
	return b
}

// Viewport is the fixed pixel frame the chart is drawn into.
type Viewport struct {
	Width   float64
	Height  float64
	Padding float64
	Rounds  int
}

// DefaultViewport matches the 600x300 board used by the scorecard view.
var DefaultViewport = Viewport{Width: 600, Height: 300, Padding: 40, Rounds: 10}

func (v Viewport) X(round int) float64 {
	return v.Padding + float64(round)/float64(v.Rounds)*(v.Width-2*v.Padding)
}

func (v Viewport) Y(score int, b Bounds) float64 {
	r := b.Range
	if r == 0 {
		r = defaultRange
	}
	return v.Height - v.Padding - float64(score-b.Min)/float64(r)*(v.Height-2*v.Padding)
}

// HasRounds reports whether any player has at least one scored round.
func HasRounds(summaries []scoreboard.PlayerSummary) bool {
	for _, s := range summaries {
		if len(s.History) > 0 {
			return true
		}
	}
	return false
}
