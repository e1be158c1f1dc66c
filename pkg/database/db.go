package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/tenantcms/internal/reliability/retry"
	"github.com/aryan0dhankhar/tenantcms/pkg/config"
)

// ConnectionPool owns the PostgreSQL handle shared by every repository.
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionPool opens PostgreSQL and waits until it answers a ping. The
// database may still be starting next to us, so failed pings are retried,
// except for rejected credentials or a missing database.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool, err := newPool(ctx, db, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("database connected successfully",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Name),
	)
	return pool, nil
}

func newPool(ctx context.Context, db *sql.DB, cfg config.DatabaseConfig, logger *slog.Logger) (*ConnectionPool, error) {
	db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 25))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 5))
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	rc := retry.DefaultConfig()
	rc.MaxAttempts = 5
	_, err := retry.Do(ctx, rc, logger, "database ping", func(ctx context.Context) (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := db.PingContext(pingCtx)
		if fatalPingError(err) {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &ConnectionPool{db: db, logger: logger}, nil
}

// fatalPingError reports server answers that another attempt cannot change:
// authorization failures (class 28) and unknown databases (class 3D).
func fatalPingError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	class := pqErr.Code.Class()
	return class == "28" || class == "3D"
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Health pings the database; it backs the readiness probe.
func (cp *ConnectionPool) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return cp.db.PingContext(ctx)
}
