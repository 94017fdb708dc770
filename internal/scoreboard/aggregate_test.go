package scoreboard

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/skullking-companion/internal/domain"
)

func TestAggregatePartialRounds(t *testing.T) {
	rounds := []domain.Round{
		{Number: 1, Results: map[string]domain.RoundResult{"Ann": {RoundScore: 10}, "Bob": {RoundScore: -5}}},
		{Number: 2, Results: map[string]domain.RoundResult{"Ann": {RoundScore: 3}}},
	}
	got := AggregateMap([]string{"Ann", "Bob"}, rounds)
	want := map[string]PlayerSummary{
		"Ann": {Name: "Ann", Score: 13, History: []int{10, 3}},
		"Bob": {Name: "Bob", Score: -5, History: []int{-5}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateKeepsIdlePlayersAndIgnoresStrangers(t *testing.T) {
	rounds := []domain.Round{
		{Number: 1, Bids: map[string]int{"Ann": 1}},
		{Number: 1, Results: map[string]domain.RoundResult{"Eve": {RoundScore: 99}}},
	}
	got := Aggregate([]string{"Ann", "Bob"}, rounds)
	want := []PlayerSummary{
		{Name: "Ann", Score: 0, History: []int{}},
		{Name: "Bob", Score: 0, History: []int{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateRawExample(t *testing.T) {
	raw := []byte(`{"players":["Ann","Bob"],"rounds":[
		{"results":{"Ann":{"round_score":10},"Bob":{"round_score":-5}}},
		{"results":{"Ann":{"round_score":3}}}
	]}`)
	got := AggregateRaw(raw)
	want := []PlayerSummary{
		{Name: "Ann", Score: 13, History: []int{10, 3}},
		{Name: "Bob", Score: -5, History: []int{-5}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateRawMalformed(t *testing.T) {
	docs := []string{
		`{"players":"Ann","rounds":[]}`,
		`{"players":["Ann"],"rounds":{"0":{}}}`,
		`{"players":null,"rounds":null}`,
		`{}`,
		`[1,2,3]`,
		`not json`,
	}
	for _, d := range docs {
		got := AggregateRaw([]byte(d))
		if got == nil || len(got) != 0 {
			t.Fatalf("doc %s: expected empty non-nil result, got %#v", d, got)
		}
	}
}

func TestAggregateRawSkipsBrokenRounds(t *testing.T) {
	raw := []byte(`{"players":["Ann",7,"Bob"],"rounds":[
		null,
		{"results":"oops"},
		{"results":{"Ann":{"tricks_won":1}}},
		{"results":{"Ann":{"round_score":20},"Bob":"bad"}}
	]}`)
	got := AggregateRaw(raw)
	want := []PlayerSummary{
		{Name: "Ann", Score: 20, History: []int{20}},
		{Name: "Bob", Score: 0, History: []int{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotErr(t *testing.T) {
	s, err := Decode([]byte(`{"players":5,"rounds":[]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !errors.Is(s.Err(), ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", s.Err())
	}
	if s.Rounds.Kind != Sequence {
		t.Fatalf("rounds should be a sequence")
	}
}

func TestLeaders(t *testing.T) {
	got := Leaders([]PlayerSummary{{Name: "A", Score: 40}, {Name: "B", Score: 90}, {Name: "C", Score: 90}})
	if diff := cmp.Diff([]string{"B", "C"}, got); diff != "" {
		t.Fatalf("leaders mismatch (-want +got):\n%s", diff)
	}
	if Leaders(nil) != nil {
		t.Fatalf("expected nil leaders for empty board")
	}
}
