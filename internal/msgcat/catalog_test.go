package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("error.trick_mismatch", map[string]any{"Expected": 4, "Actual": 5})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Total tricks won must equal 4, got 5." {
		t.Fatalf("unexpected text %q", got)
	}
	got, err = c.Render("game.over", map[string]any{"Winners": []string{"Ann", "Bob"}, "Score": 120})
	if err != nil || got != "Game over! Winners: Ann, Bob with 120 points." {
		t.Fatalf("unexpected game over text %q (%v)", got, err)
	}
	if !c.Has("help") || c.Has("nope.key") {
		t.Fatalf("Has mismatch")
	}
}

func TestMissingFieldIsError(t *testing.T) {
	c, _ := New("")
	if _, err := c.Render("error.unknown_player", map[string]any{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if s := c.RenderOr("error.unknown_player", map[string]any{}, "fallback"); s != "fallback" {
		t.Fatalf("expected fallback, got %q", s)
	}
	var nilCat *Catalog
	if s := nilCat.RenderOr("help", nil, "fb"); s != "fb" {
		t.Fatalf("nil catalog should fall back")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("error:\n  no_game: \"Ahoy, no game yet.\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, _ := c.Render("error.no_game", nil); got != "Ahoy, no game yet." {
		t.Fatalf("override not applied: %q", got)
	}
	if got, _ := c.Render("chart.saved", map[string]any{"Path": "x.png"}); !strings.Contains(got, "x.png") {
		t.Fatalf("defaults lost: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("help: one\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.yml"), []byte("help: two\n"), 0o644)
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestNonStringLeafRejected(t *testing.T) {
	if _, err := parseYAMLToFlat([]byte("a:\n  b: 3\n")); err == nil {
		t.Fatalf("expected unsupported value error")
	}
}
