package bonus

import "strings"

// Category identifies a special in-round scoring event.
type Category string

const (
	Pirate    Category = "pirate"
	Mermaid   Category = "mermaid"
	SkullKing Category = "skull_king"
	Loot      Category = "loot"
	Rascal    Category = "rascal"
)

// rule is a modular counter: count advances 0..Max and wraps to 0.
type rule struct {
	Unit int
	Max  int
}

var rules = map[Category]rule{
	Pirate:    {Unit: 30, Max: 5},
	Mermaid:   {Unit: 20, Max: 2},
	SkullKing: {Unit: 50, Max: 1},
	Loot:      {Unit: 10, Max: 1},
	Rascal:    {Unit: -5, Max: 1},
}

// Categories lists every category in display order.
var Categories = []Category{Pirate, Mermaid, SkullKing, Loot, Rascal}

var aliases = map[string]Category{
	"pirate":     Pirate,
	"p":          Pirate,
	"mermaid":    Mermaid,
	"m":          Mermaid,
	"skull_king": SkullKing,
	"skullking":  SkullKing,
	"sk":         SkullKing,
	"king":       SkullKing,
	"loot":       Loot,
	"l":          Loot,
	"rascal":     Rascal,
	"r":          Rascal,
	"14":         Rascal,
}

// Selection maps a category to its accumulated point value for one player.
type Selection map[Category]int

// ParseCategory resolves operator input such as "sk" or "Pirate".
func ParseCategory(s string) (Category, bool) {
	c, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// Unit returns the per-activation value of c.
func Unit(c Category) int { return rules[c].Unit }

// MaxCount returns how many times c may stack before wrapping.
func MaxCount(c Category) int { return rules[c].Max }

// Count returns the current multiplicity of c in sel.
func Count(sel Selection, c Category) int {
	r, ok := rules[c]
	if !ok || r.Unit == 0 {
		return 0
	}
	return sel[c] / r.Unit
}

// Clone returns an independent copy of s.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Apply returns a copy of sel with c advanced one step. sel is never mutated.
func Apply(sel Selection, c Category) Selection {
	out := sel.Clone()
	r, ok := rules[c]
	if !ok {
		return out
	}
	next := (Count(sel, c) + 1) % (r.Max + 1)
	if next == 0 {
		delete(out, c)
		return out
	}
	out[c] = next * r.Unit
	return out
}

// Total sums every category value, rascal included.
func Total(sel Selection) int {
	sum := 0
	for _, v := range sel {
		sum += v
	}
	return sum
}
