package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/skullking-companion/internal/chart"
	"github.com/park285/skullking-companion/internal/scoreboard"
	"github.com/park285/skullking-companion/internal/scoring"
)

func main() {
	_ = godotenv.Load()
	baseURL := strings.TrimSpace(os.Getenv("SCORING_BASE_URL"))
	apiKey := strings.TrimSpace(os.Getenv("SCORING_API_KEY"))
	if baseURL == "" {
		log.Fatal("SCORING_BASE_URL is required")
	}
	if len(os.Args) < 2 {
		log.Fatal("usage: scorecheck <game-id>")
	}
	gameID := os.Args[1]

	headers := func() map[string]string {
		if apiKey == "" {
			return nil
		}
		return map[string]string{"X-API-Key": apiKey}
	}
	client := scoring.NewClient(baseURL,
		scoring.WithHeaderProvider(headers),
		scoring.WithTimeout(8*time.Second),
		scoring.WithRetry(3),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	raw, err := client.GetGameRaw(ctx, gameID)
	if err != nil {
		log.Fatalf("GET /games/%s error: %v", gameID, err)
	}

	summaries := scoreboard.AggregateRaw(raw)
	if len(summaries) == 0 {
		log.Printf("game %s: no usable players or rounds", gameID)
	}
	for _, s := range summaries {
		fmt.Printf("%-16s %5d  %v\n", s.Name, s.Score, s.History)
	}
	b := chart.DeriveBounds(summaries)
	fmt.Printf("bounds: min=%d max=%d range=%d\n", b.Min, b.Max, b.Range)
	if leaders := scoreboard.Leaders(summaries); len(leaders) > 0 {
		fmt.Printf("leading: %s\n", strings.Join(leaders, ", "))
	}
}
