package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/skullking-companion/internal/builder"
	appcfg "github.com/park285/skullking-companion/internal/config"
	"github.com/park285/skullking-companion/internal/console"
	"github.com/park285/skullking-companion/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var src console.Source
	var feed *console.WSFeed
	if cfg.FeedWSURL != "" {
		feed = console.NewWSFeed(cfg.FeedWSURL, 5,
			console.WithFeedLogger(logger.Named("feed")),
			console.WithFeedHeaders(func() map[string]string {
				return map[string]string{"X-Operator-Id": cfg.OperatorID}
			}),
		)
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := feed.Connect(cctx)
		cancel()
		if err != nil {
			log.Fatalf("feed connect error: %v", err)
		}
		src = feed
	} else {
		src = console.NewStdio(os.Stdin, os.Stdout, "> ")
	}

	deps, err := builder.New(cfg, logger, func(msg string) error { return src.Reply(ctx, msg) })
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	logger.Info("skullking_started",
		zap.String("scoring", cfg.ScoringBaseURL),
		zap.Bool("feed", feed != nil),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("archive", deps.Archive != nil),
	)
	_ = src.Reply(ctx, deps.Formatter.Help())

	if err := deps.Dispatcher.Run(ctx, src); err != nil && ctx.Err() == nil {
		logger.Error("console_stopped", zap.Error(err))
	}
	if feed != nil {
		cctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = feed.Close(cctx)
		cancel()
	}
}
