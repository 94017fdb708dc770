package bonus

import "testing"

func TestApplyPirateCycle(t *testing.T) {
	sel := Selection{}
	want := []int{30, 60, 90, 120, 150, 0}
	for i, w := range want {
		sel = Apply(sel, Pirate)
		if sel[Pirate] != w {
			t.Fatalf("step %d: pirate=%d, want %d", i+1, sel[Pirate], w)
		}
	}
	if got := Apply(Selection{Pirate: 120}, Pirate)[Pirate]; got != 150 {
		t.Fatalf("from 120: got %d, want 150", got)
	}
	if got := Apply(Selection{Pirate: 150}, Pirate)[Pirate]; got != 0 {
		t.Fatalf("from 150: got %d, want 0", got)
	}
}

func TestApplyMermaidCycle(t *testing.T) {
	sel := Selection{}
	for i, w := range []int{20, 40, 0} {
		sel = Apply(sel, Mermaid)
		if sel[Mermaid] != w {
			t.Fatalf("step %d: mermaid=%d, want %d", i+1, sel[Mermaid], w)
		}
	}
}

func TestApplyToggles(t *testing.T) {
	for _, c := range []Category{SkullKing, Loot, Rascal} {
		on := Apply(Selection{}, c)
		if on[c] != Unit(c) {
			t.Fatalf("%s on: got %d, want %d", c, on[c], Unit(c))
		}
		off := Apply(on, c)
		if off[c] != 0 {
			t.Fatalf("%s off: got %d", c, off[c])
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	sel := Selection{Pirate: 30, Loot: 10}
	next := Apply(sel, Pirate)
	if sel[Pirate] != 30 {
		t.Fatalf("input mutated: %v", sel)
	}
	if next[Loot] != 10 || next[Pirate] != 60 {
		t.Fatalf("unexpected next selection: %v", next)
	}
}

func TestApplyKeepsUnitMultiples(t *testing.T) {
	sel := Selection{}
	for i := 0; i < 40; i++ {
		c := Categories[i%len(Categories)]
		sel = Apply(sel, c)
		for _, cat := range Categories {
			v := sel[cat]
			if v%Unit(cat) != 0 {
				t.Fatalf("%s value %d is not a multiple of %d", cat, v, Unit(cat))
			}
			if n := Count(sel, cat); n < 0 || n > MaxCount(cat) {
				t.Fatalf("%s count %d out of range", cat, n)
			}
		}
	}
}

func TestTotal(t *testing.T) {
	sel := Selection{Pirate: 60, Mermaid: 20, Rascal: -5}
	if got := Total(sel); got != 75 {
		t.Fatalf("total=%d, want 75", got)
	}
	if got := Total(nil); got != 0 {
		t.Fatalf("nil total=%d", got)
	}
	all := Selection{Pirate: 150, Mermaid: 40, SkullKing: 50, Loot: 10, Rascal: -5}
	if got := Total(all); got != 245 {
		t.Fatalf("all total=%d, want 245", got)
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"pirate": Pirate, " P ": Pirate, "Mermaid": Mermaid, "sk": SkullKing,
		"king": SkullKing, "loot": Loot, "14": Rascal, "rascal": Rascal,
	}
	for in, want := range cases {
		got, ok := ParseCategory(in)
		if !ok || got != want {
			t.Fatalf("ParseCategory(%q)=%q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseCategory("kraken"); ok {
		t.Fatalf("expected unknown category to fail")
	}
}
