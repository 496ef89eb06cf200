package db

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekene/classpulse/internal/config"
	"github.com/ekene/classpulse/internal/pkg/logger"
)

// PostgresDB database connection structure
type PostgresDB struct {
	Pool *pgxpool.Pool
}

// NewPostgresDB creates a new PostgreSQL connection pool
func NewPostgresDB(cfg *config.Config) (*PostgresDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)

	maxLifetime, err := time.ParseDuration(cfg.Database.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection max lifetime: %w", err)
	}
	poolConfig.MaxConnLifetime = maxLifetime

	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := conn.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Unhealthy connection detected")
			return false
		}
		return true
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

// Close closing method
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health tracks database reachability with a background ping loop. The dual
// stores read Online on every operation, so the flag must stay cheap; one
// atomic load, refreshed out of band.
type Health struct {
	pool   *pgxpool.Pool
	online atomic.Bool
}

// NewHealth creates a health tracker assuming the pool starts reachable,
// which NewPostgresDB just verified.
func NewHealth(pool *pgxpool.Pool) *Health {
	h := &Health{pool: pool}
	h.online.Store(true)
	return h
}

// Online reports the result of the most recent probe.
func (h *Health) Online() bool {
	return h.online.Load()
}

// Run probes the database at the given interval until the context is
// cancelled. State transitions are logged once per flip, not per probe.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval)
			err := h.pool.Ping(probeCtx)
			cancel()

			was := h.online.Swap(err == nil)
			switch {
			case err != nil && was:
				logger.Error().Err(err).Msg("Database unreachable, switching to fallback storage")
			case err == nil && !was:
				logger.Info().Msg("Database reachable again, resuming persistent storage")
			}
		}
	}
}
