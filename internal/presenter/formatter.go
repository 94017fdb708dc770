package presenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/park285/skullking-companion/internal/bonus"
	"github.com/park285/skullking-companion/internal/domain"
	"github.com/park285/skullking-companion/internal/lifecycle"
	"github.com/park285/skullking-companion/internal/msgcat"
	"github.com/park285/skullking-companion/internal/roundinput"
	"github.com/park285/skullking-companion/internal/scoreboard"
	"github.com/park285/skullking-companion/internal/scoring"
)

const scorecardTitle = "Captain's Log"

// Formatter renders game state and errors into operator-facing text.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

func (f *Formatter) text(key string, data map[string]any, fallback string) string {
	if f == nil {
		return fallback
	}
	return f.cat.RenderOr(key, data, fallback)
}

func (f *Formatter) Help() string {
	return f.text("help", nil, "Commands: new, bid, bonus, result, board, chart, resume, quit")
}

func (f *Formatter) Started(g *domain.GameSession) string {
	if g == nil {
		return ""
	}
	return f.text("game.started", map[string]any{"GameID": g.ID, "Players": g.Players}, "New game "+g.ID)
}

func (f *Formatter) Resumed(st lifecycle.State) string {
	return f.text("game.resumed", map[string]any{"GameID": st.GameID, "Phase": string(st.Phase), "Round": st.Round}, "Resumed "+st.GameID)
}

func (f *Formatter) NoCheckpoint() string {
	return f.text("game.no_checkpoint", nil, "No checkpoint to resume.")
}

// Prompt tells the operator what the controller expects next.
func (f *Formatter) Prompt(st lifecycle.State) string {
	data := map[string]any{"Round": st.Round}
	switch st.Phase {
	case lifecycle.PhaseBid:
		return f.text("round.bid_prompt", data, fmt.Sprintf("Round %d: enter bids.", st.Round))
	case lifecycle.PhaseResult:
		return f.text("round.result_prompt", data, fmt.Sprintf("Round %d: enter results.", st.Round))
	default:
		return ""
	}
}

func (f *Formatter) BidsAccepted(round int) string {
	return f.text("round.bids_accepted", map[string]any{"Round": round}, "Bids locked.")
}

func (f *Formatter) ResultsAccepted(round int) string {
	return f.text("round.results_accepted", map[string]any{"Round": round}, "Round scored.")
}

func (f *Formatter) BonusToggled(player string, sel bonus.Selection) string {
	summary := BonusSummary(sel)
	total := bonus.Total(sel)
	return f.text("bonus.toggled", map[string]any{"Player": player, "Summary": summary, "Total": total},
		fmt.Sprintf("%s bonus: %s (%d)", player, summary, total))
}

func (f *Formatter) ChartSaved(path string) string {
	return f.text("chart.saved", map[string]any{"Path": path}, "Chart saved to "+path)
}

func (f *Formatter) Usage(usage string) string {
	return f.text("error.usage", map[string]any{"Usage": usage}, "Usage: "+usage)
}

func (f *Formatter) UnknownCommand(name string) string {
	return f.text("error.unknown_command", map[string]any{"Command": name}, "Unknown command "+name)
}

// BonusSummary lists the active categories with their multiplicity.
func BonusSummary(sel bonus.Selection) string {
	parts := make([]string, 0, len(bonus.Categories))
	for _, c := range bonus.Categories {
		n := bonus.Count(sel, c)
		if n == 0 {
			continue
		}
		if bonus.MaxCount(c) > 1 {
			parts = append(parts, fmt.Sprintf("%s x%d", c, n))
		} else {
			parts = append(parts, string(c))
		}
	}
	return strings.Join(parts, ", ")
}

// Scorecard renders the per-round table with a running total column.
func (f *Formatter) Scorecard(g *domain.GameSession) string {
	var sb strings.Builder
	sb.WriteString(scorecardTitle)
	if g == nil {
		return sb.String()
	}
	summaries := scoreboard.FromSession(g)
	// one column per closed round, keyed by round number
	var closed []domain.Round
	for _, r := range g.Rounds {
		if r.Closed() {
			closed = append(closed, r)
		}
	}
	nameW := len("Player")
	for _, s := range summaries {
		if len(s.Name) > nameW {
			nameW = len(s.Name)
		}
	}

	colW := 4
	sb.WriteString("\n")
	sb.WriteString(pad("Player", nameW))
	for i, r := range closed {
		num := r.Number
		if num == 0 {
			num = i + 1
		}
		sb.WriteString(" |")
		sb.WriteString(padLeft(fmt.Sprint(num), colW))
	}
	sb.WriteString(" |")
	sb.WriteString(padLeft("Tot", colW+1))
	for _, s := range summaries {
		sb.WriteString("\n")
		sb.WriteString(pad(s.Name, nameW))
		for _, r := range closed {
			cell := ""
			if res, ok := r.Results[s.Name]; ok {
				cell = fmt.Sprint(res.RoundScore)
			}
			sb.WriteString(" |")
			sb.WriteString(padLeft(cell, colW))
		}
		sb.WriteString(" |")
		sb.WriteString(padLeft(fmt.Sprint(s.Score), colW+1))
	}
	return sb.String()
}

// Standings renders the final ranking; ties share the win.
func (f *Formatter) Standings(g *domain.GameSession) string {
	summaries := scoreboard.FromSession(g)
	winners := scoreboard.Leaders(summaries)
	best := 0
	for i, s := range summaries {
		if i == 0 || s.Score > best {
			best = s.Score
		}
	}
	var sb strings.Builder
	sb.WriteString(f.text("game.over", map[string]any{"Winners": winners, "Score": best},
		fmt.Sprintf("Game over! Winners: %s", strings.Join(winners, ", "))))
	sb.WriteString("\n")
	sb.WriteString(f.Scorecard(g))
	return sb.String()
}

// Error maps controller, validation and transport errors to a reply.
func (f *Formatter) Error(err error, st lifecycle.State) string {
	if err == nil {
		return ""
	}
	var inv *roundinput.InvalidNumericInputError
	var mm *roundinput.TrickCountMismatchError
	var te *scoring.TransportError
	switch {
	case errors.Is(err, lifecycle.ErrOpenPending):
		key := "error.open_pending"
		if st.Round <= 1 {
			// round 1 is opened by Start, before any scores exist
			key = "error.open_pending_start"
		}
		return f.text(key, map[string]any{"Round": st.Round}, err.Error())
	case errors.As(err, &inv):
		return f.text("error.invalid_input", map[string]any{"Players": inv.Players}, err.Error())
	case errors.As(err, &mm):
		return f.text("error.trick_mismatch", map[string]any{"Expected": mm.Expected, "Actual": mm.Actual}, err.Error())
	case errors.As(err, &te):
		detail := te.Detail
		if detail == "" {
			detail = te.Error()
		}
		return f.text("error.transport", map[string]any{"Detail": detail}, err.Error())
	case errors.Is(err, lifecycle.ErrTransitionInFlight):
		return f.text("error.in_flight", nil, err.Error())
	case errors.Is(err, lifecycle.ErrGameOver):
		return f.text("error.game_over", nil, err.Error())
	case errors.Is(err, lifecycle.ErrWrongPhase):
		return f.text("error.wrong_phase", map[string]any{"Phase": string(st.Phase), "Round": st.Round}, err.Error())
	case errors.Is(err, lifecycle.ErrNoGame):
		return f.text("error.no_game", nil, err.Error())
	case errors.Is(err, lifecycle.ErrUnknownPlayer):
		return f.text("error.unknown_player", map[string]any{"Player": quoted(err)}, err.Error())
	case errors.Is(err, lifecycle.ErrUnknownCategory):
		return f.text("error.unknown_category", map[string]any{"Category": quoted(err)}, err.Error())
	case errors.Is(err, domain.ErrTooFewPlayers), errors.Is(err, domain.ErrTooManyPlayers),
		errors.Is(err, domain.ErrDuplicatePlayer), errors.Is(err, domain.ErrBlankPlayer):
		return f.text("error.roster", map[string]any{"Detail": err.Error()}, err.Error())
	default:
		return f.text("error.internal", map[string]any{"Detail": err.Error()}, err.Error())
	}
}

// quoted extracts the %q argument appended by the controller.
func quoted(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "\""); i >= 0 {
		return msg[i:]
	}
	return msg
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func padLeft(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return strings.Repeat(" ", w-len(s)) + s
}
