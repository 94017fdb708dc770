package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/park285/skullking-companion/internal/archive"
	"github.com/park285/skullking-companion/internal/bonus"
	"github.com/park285/skullking-companion/internal/checkpoint"
	"github.com/park285/skullking-companion/internal/lifecycle"
	"github.com/park285/skullking-companion/internal/presenter"
	"go.uber.org/zap"
)

// Archiver stores finished scorecards.
type Archiver interface {
	SaveScorecard(ctx context.Context, card archive.Scorecard) error
}

type Deps struct {
	Controller *lifecycle.Controller
	Formatter  *presenter.Formatter
	Presenter  *presenter.Presenter
	Store      checkpoint.Store
	Archive    Archiver // optional
	OperatorID string
	Logger     *zap.Logger
}

// Dispatcher turns operator commands into controller calls and replies.
type Dispatcher struct {
	ctrl     *lifecycle.Controller
	fmt      *presenter.Formatter
	pres     *presenter.Presenter
	store    checkpoint.Store
	archive  Archiver
	operator string
	logger   *zap.Logger
	now      func() time.Time
}

func NewDispatcher(d Deps) *Dispatcher {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := d.Store
	if store == nil {
		store = checkpoint.NewMemoryStore()
	}
	return &Dispatcher{
		ctrl:     d.Controller,
		fmt:      d.Formatter,
		pres:     d.Presenter,
		store:    store,
		archive:  d.Archive,
		operator: d.OperatorID,
		logger:   logger,
		now:      time.Now,
	}
}

// Run reads commands from src until EOF, quit or ctx cancellation.
func (d *Dispatcher) Run(ctx context.Context, src Source) error {
	for {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		reply, quit := d.Handle(ctx, line)
		if err := src.Reply(ctx, reply); err != nil {
			d.logger.Warn("console_reply_failed", zap.Error(err))
		}
		if quit {
			return nil
		}
	}
}

// Handle executes one line and returns the reply text.
func (d *Dispatcher) Handle(ctx context.Context, line string) (string, bool) {
	cmd, err := Parse(line)
	if err != nil {
		return d.fmt.Usage(Usage(cmd.Name)), false
	}
	switch cmd.Name {
	case "":
		return "", false
	case "help", "?":
		return d.fmt.Help(), false
	case "quit", "exit":
		return "", true
	case "new":
		return d.newGame(ctx, cmd.Args), false
	case "bid":
		return d.bids(ctx, cmd.Assign), false
	case "bonus":
		return d.bonus(cmd.Args[0], cmd.Args[1]), false
	case "result":
		return d.results(ctx, cmd.Assign), false
	case "board":
		return d.fmt.Scorecard(d.ctrl.Session()), false
	case "chart":
		return d.chart(ctx), false
	case "resume":
		return d.resume(ctx), false
	default:
		return d.fmt.UnknownCommand(cmd.Name), false
	}
}

func (d *Dispatcher) newGame(ctx context.Context, players []string) string {
	st, err := d.ctrl.Start(ctx, players)
	if err != nil && !errors.Is(err, lifecycle.ErrOpenPending) {
		return d.fmt.Error(err, st)
	}
	d.checkpoint(ctx)
	lines := []string{d.fmt.Started(d.ctrl.Session())}
	if err != nil {
		lines = append(lines, d.fmt.Error(err, st))
	}
	lines = append(lines, d.fmt.Prompt(st))
	return joinLines(lines...)
}

func (d *Dispatcher) bids(ctx context.Context, raw map[string]string) string {
	st, err := d.ctrl.SubmitBids(ctx, raw)
	if err != nil {
		return d.fmt.Error(err, st)
	}
	d.checkpoint(ctx)
	return joinLines(d.fmt.BidsAccepted(st.Round), d.fmt.Prompt(st))
}

func (d *Dispatcher) bonus(player, category string) string {
	sel, err := d.ctrl.ToggleBonus(player, bonus.Category(strings.ToLower(category)))
	if err != nil {
		return d.fmt.Error(err, d.ctrl.State())
	}
	return d.fmt.BonusToggled(player, sel)
}

func (d *Dispatcher) results(ctx context.Context, raw map[string]string) string {
	before := d.ctrl.State()
	st, err := d.ctrl.SubmitResults(ctx, raw)
	if err != nil && !errors.Is(err, lifecycle.ErrOpenPending) {
		return d.fmt.Error(err, st)
	}
	session := d.ctrl.Session()
	lines := []string{d.fmt.ResultsAccepted(before.Round)}
	if path := d.saveChart(ctx); path != "" {
		lines = append(lines, d.fmt.ChartSaved(path))
	}

	if st.Phase == lifecycle.PhaseGameOver {
		d.finish(ctx)
		lines = append(lines, d.fmt.Standings(session))
		return joinLines(lines...)
	}
	d.checkpoint(ctx)
	lines = append(lines, d.fmt.Scorecard(session))
	if err != nil {
		lines = append(lines, d.fmt.Error(err, st))
	}
	lines = append(lines, d.fmt.Prompt(st))
	return joinLines(lines...)
}

func (d *Dispatcher) chart(ctx context.Context) string {
	session := d.ctrl.Session()
	if session == nil {
		return d.fmt.Error(lifecycle.ErrNoGame, d.ctrl.State())
	}
	path, err := d.pres.SaveChart(ctx, session)
	if err != nil {
		return d.fmt.Error(err, d.ctrl.State())
	}
	return d.fmt.ChartSaved(path)
}

func (d *Dispatcher) resume(ctx context.Context) string {
	snap, err := d.store.Load(ctx, d.operator)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return d.fmt.NoCheckpoint()
	}
	if err != nil {
		return d.fmt.Error(err, d.ctrl.State())
	}
	if err := d.ctrl.Restore(snap); err != nil {
		return d.fmt.Error(err, d.ctrl.State())
	}
	st := d.ctrl.State()
	return joinLines(d.fmt.Resumed(st), d.fmt.Scorecard(d.ctrl.Session()), d.fmt.Prompt(st))
}

func (d *Dispatcher) saveChart(ctx context.Context) string {
	if d.pres == nil {
		return ""
	}
	path, err := d.pres.SaveChart(ctx, d.ctrl.Session())
	if err != nil {
		d.logger.Warn("chart_save_failed", zap.Error(err))
		return ""
	}
	return path
}

func (d *Dispatcher) checkpoint(ctx context.Context) {
	snap, ok := d.ctrl.Export()
	if !ok {
		return
	}
	if err := d.store.Save(ctx, d.operator, snap); err != nil {
		d.logger.Warn("checkpoint_save_failed", zap.String("operator", d.operator), zap.Error(err))
	}
}

// finish archives the final scorecard and drops the checkpoint.
func (d *Dispatcher) finish(ctx context.Context) {
	if err := d.store.Delete(ctx, d.operator); err != nil {
		d.logger.Warn("checkpoint_delete_failed", zap.String("operator", d.operator), zap.Error(err))
	}
	if d.archive == nil {
		return
	}
	card := archive.BuildScorecard(d.ctrl.Session(), d.now())
	if err := d.archive.SaveScorecard(ctx, card); err != nil {
		d.logger.Warn("scorecard_archive_failed", zap.String("game_id", card.GameID), zap.Error(err))
		return
	}
	d.logger.Info("scorecard_archived", zap.String("game_id", card.GameID), zap.Strings("winners", card.Winners))
}

func joinLines(lines ...string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
