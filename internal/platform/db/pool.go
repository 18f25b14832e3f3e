package db

import (
	"context"
	"fmt"
	"time"

	"ratelock/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

const (
	connectAttempts   = 5
	connectRetryDelay = 2 * time.Second
)

// Connect applies pending migrations and returns a pool that has answered a
// ping. The database is allowed a few seconds to come up.
func Connect(ctx context.Context, cfg config.DbServer) (*pgxpool.Pool, error) {
	dsn := cfg.GetConnectionStr()

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewConstant(connectRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if migrateErr := Migrate(ctx, dsn); migrateErr != nil {
			logrus.WithError(migrateErr).WithField("host", cfg.Host).Warn("Postgres not ready")
			return retry.RetryableError(migrateErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newPool(ctx, dsn, cfg.MaxConns)
}

func newPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}
