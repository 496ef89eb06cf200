// The notifier worker drains the redis notification queue into the
// notifications table. Run it alongside the API when redis is enabled; with
// the in-memory queue the API consumes its own messages and this binary is
// not needed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	appRepos "github.com/ekene/classpulse/internal/app/repositories"
	appServices "github.com/ekene/classpulse/internal/app/services"
	"github.com/ekene/classpulse/internal/bootstrap"
	"github.com/ekene/classpulse/internal/db"
	"github.com/ekene/classpulse/internal/pkg/logger"
	"github.com/ekene/classpulse/internal/pkg/queue"
)

func main() {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	if !cfg.Redis.Enabled {
		lgr.Error().Msg("Redis is not enabled; the notifier worker has nothing to consume")
		os.Exit(1)
	}

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		os.Exit(1)
	}
	defer database.Close()

	redisClient, err := db.NewRedisClient(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to redis")
		os.Exit(1)
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		osSignals := make(chan os.Signal, 1)
		signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)
		sig := <-osSignals
		lgr.Info().Str("signal", sig.String()).Msg("Received OS signal, stopping worker...")
		cancel()
	}()

	q := queue.NewRedisQueue(redisClient, cfg.Redis.QueueKey)
	store := appRepos.NewNotificationRepository(database.Pool)

	if err := appServices.RunNotifierWorker(ctx, q, store, lgr); err != nil {
		lgr.Error().Err(err).Msg("Notifier worker failed")
		os.Exit(1)
	}
}
