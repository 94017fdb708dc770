package builder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/skullking-companion/internal/archive"
	"github.com/park285/skullking-companion/internal/chart"
	"github.com/park285/skullking-companion/internal/checkpoint"
	"github.com/park285/skullking-companion/internal/config"
	"github.com/park285/skullking-companion/internal/console"
	"github.com/park285/skullking-companion/internal/lifecycle"
	"github.com/park285/skullking-companion/internal/msgcat"
	"github.com/park285/skullking-companion/internal/presenter"
	"github.com/park285/skullking-companion/internal/scoring"
	"go.uber.org/zap"
)

type Deps struct {
	Client     *scoring.Client
	Controller *lifecycle.Controller
	Formatter  *presenter.Formatter
	Presenter  *presenter.Presenter
	Store      checkpoint.Store
	Archive    *archive.Repository // nil without DATABASE_URL
	Dispatcher *console.Dispatcher

	closers []func() error
}

// New wires the scoring client, controller and optional Redis/Postgres backends.
// send delivers replies produced outside the command loop.
func New(cfg *config.AppConfig, logger *zap.Logger, send func(string) error) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	d.Client = scoring.NewClient(cfg.ScoringBaseURL,
		scoring.WithTimeout(cfg.ScoringTimeout),
		scoring.WithRetry(cfg.ScoringRetry),
		scoring.WithHeaderProvider(cfg.Headers),
		scoring.WithLogger(logger.Named("scoring")),
	)
	d.Controller = lifecycle.NewController(d.Client, lifecycle.WithLogger(logger.Named("lifecycle")))

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Formatter = presenter.NewFormatter(cat)
	d.Presenter = presenter.NewPresenter(send, chart.NewRenderer(cfg.ChartRenderer), cfg.ChartDir)

	if strings.TrimSpace(cfg.RedisURL) != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err := checkpoint.Dial(ctx, cfg.RedisURL, cfg.CheckpointTTL)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("init checkpoint store: %w", err)
		}
		d.Store = store
		d.closers = append(d.closers, store.Close)
	} else {
		logger.Info("checkpoint_memory_store", zap.String("reason", "REDIS_URL not set"))
		d.Store = checkpoint.NewMemoryStore()
	}

	var archiver console.Archiver
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("open archive: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = repo.EnsureSchema(ctx)
		cancel()
		if err != nil {
			_ = repo.Close()
			d.Close()
			return nil, fmt.Errorf("archive schema: %w", err)
		}
		d.Archive = repo
		archiver = repo
		d.closers = append(d.closers, repo.Close)
	}

	d.Dispatcher = console.NewDispatcher(console.Deps{
		Controller: d.Controller,
		Formatter:  d.Formatter,
		Presenter:  d.Presenter,
		Store:      d.Store,
		Archive:    archiver,
		OperatorID: cfg.OperatorID,
		Logger:     logger.Named("console"),
	})
	return d, nil
}

// Close releases backends in reverse order of creation.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	d.closers = nil
	return first
}
