package presenter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/park285/skullking-companion/internal/chart"
	"github.com/park285/skullking-companion/internal/domain"
	"github.com/park285/skullking-companion/internal/scoreboard"
)

// Presenter delivers replies and chart images without coupling to the command layer.
type Presenter struct {
	sendMessage func(message string) error
	renderer    chart.Renderer
	chartDir    string
}

func NewPresenter(sendMessage func(message string) error, renderer chart.Renderer, chartDir string) *Presenter {
	return &Presenter{sendMessage: sendMessage, renderer: renderer, chartDir: chartDir}
}

func (p *Presenter) Say(message string) error {
	if p == nil || p.sendMessage == nil {
		return nil
	}
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(message)
}

// ChartPath is where the chart for game after round n is written.
func (p *Presenter) ChartPath(gameID string, round int) string {
	name := fmt.Sprintf("%s-r%d.png", sanitizeFileName(gameID), round)
	return filepath.Join(p.chartDir, name)
}

// SaveChart renders the progress chart for g and writes it under the chart dir.
func (p *Presenter) SaveChart(ctx context.Context, g *domain.GameSession) (string, error) {
	if p == nil || p.renderer == nil {
		return "", fmt.Errorf("chart renderer not configured")
	}
	if g == nil {
		return "", fmt.Errorf("no game to chart")
	}
	png, err := p.renderer.RenderPNG(ctx, scoreboard.FromSession(g))
	if err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	if err := os.MkdirAll(p.chartDir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	path := p.ChartPath(g.ID, g.ClosedRounds())
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	return path, nil
}

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "game"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
