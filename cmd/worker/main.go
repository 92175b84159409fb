package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/app"
	"github.com/unclebandit/dripline/internal/config"
	"github.com/unclebandit/dripline/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).Named("worker")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("init", zap.Error(err))
	}
	defer a.Close()

	if err := a.SubscribeLeads(ctx); err != nil {
		log.Fatal("subscribe leads", zap.Error(err))
	}
	if err := a.SubscribeEvents(ctx); err != nil {
		log.Fatal("subscribe events", zap.Error(err))
	}

	loop, err := a.DispatchLoop(ctx)
	if err != nil {
		log.Fatal("build dispatcher", zap.Error(err))
	}
	if err := loop.Start(ctx); err != nil {
		log.Fatal("start dispatch loop", zap.Error(err))
	}

	<-ctx.Done()
	log.Info("stopping dispatch loop")
	loop.Stop()
}
