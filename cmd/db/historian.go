// cmd/db/historian.go is an asynchronous historian service that pops game actions from a Redis
// queue and persists them to a PostgreSQL database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/dutch/internal/cache"
	"github.com/jason-s-yu/dutch/internal/config"
	"github.com/jason-s-yu/dutch/internal/database"
	"github.com/jason-s-yu/dutch/internal/historian"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, cfg.PostgresURL())
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.WithError(err).Fatal("schema migration failed")
	}

	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb, err := cache.ConnectRedis(ctx, addr, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	// BLPop with a 3-second timeout so that context cancellation is handled.
	queue := cache.NewQueue(rdb, cfg.QueueName, 3*time.Second)
	svc := historian.New(queue, database.NewStore(pool), historian.Options{
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushMs) * time.Millisecond,
		Inactivity:    time.Duration(config.GetEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("historian exited with error")
		os.Exit(1)
	}
	logger.Info("historian shutdown complete")
}
