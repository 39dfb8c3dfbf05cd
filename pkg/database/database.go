// Package database opens the PostgreSQL pool used by the postgres coupon
// store and ties it to the lifecycle coordinator.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// ErrNotReady wraps startup failures: an unreachable server or a missing schema.
var ErrNotReady = errors.New("database not ready")

// System is a lazily connected pool.
type System interface {
	Connection() *sql.DB
	// Start verifies connectivity and the configured schema during startup
	// and closes the pool on shutdown.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn    *sql.DB
	schema  string
	timeout time.Duration
	logger  *slog.Logger
}

// New parses cfg and sizes the pool. No connection is made until Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	pc, err := pgx.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pc.ConnectTimeout = cfg.ConnTimeoutDuration()

	db := stdlib.OpenDB(*pc)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:    db,
		schema:  cfg.Schema,
		timeout: cfg.ConnTimeoutDuration(),
		logger:  logger.With("system", "database", "host", pc.Host, "db", pc.Database),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.conn.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrNotReady, err)
		}

		var exists bool
		const q = `SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`
		if err := d.conn.QueryRowContext(ctx, q, d.schema).Scan(&exists); err != nil {
			return fmt.Errorf("%w: check schema: %w", ErrNotReady, err)
		}
		if !exists {
			return fmt.Errorf("%w: schema %q does not exist", ErrNotReady, d.schema)
		}

		d.logger.Info("database ready", "schema", d.schema)
		return nil
	})

	lc.OnShutdown("database", func(context.Context) error {
		if err := d.conn.Close(); err != nil {
			return err
		}
		d.logger.Info("database connection closed")
		return nil
	})
	return nil
}
