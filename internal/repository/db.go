package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/docextract/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open picks the backend from the DSN scheme: sqlite:// or file: for
// SQLite, postgres:// or postgresql:// for Postgres.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := strings.TrimSpace(cfg.DSN)
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"), logger)
	case strings.HasPrefix(dsn, "file:"):
		return OpenSQLite(strings.TrimPrefix(dsn, "file:"), logger)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pool, err := OpenPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		s := NewPostgresStore(pool, logger)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unsupported store DSN %q", dsn), common.ErrInvalidInput)
}

// OpenPool creates a pgx pool.
func OpenPool(ctx context.Context, cfg Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewAppError(common.CodeStore, "parse DSN", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "docextract"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewAppError(common.CodeStore, "connect", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}

	logger.Info("successfully connected to database")
	return pool, nil
}

// HealthCheck pings the store to catch DSN issues early.
func HealthCheck(ctx context.Context, s Store, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
