// Package postgres persists the reward engine state and the project registry
// in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/malbeclabs/metabonding/utils/pkg/retry"
)

type Config struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	SSLMode  string

	MaxConns int32
	MinConns int32
}

func (cfg *Config) Validate() error {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.Database == "" {
		return errors.New("postgres database is required")
	}
	if cfg.Username == "" {
		return errors.New("postgres username is required")
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10
	}
	if cfg.MinConns <= 0 {
		cfg.MinConns = 2
	}
	if cfg.MinConns > cfg.MaxConns {
		return fmt.Errorf("postgres min conns %d exceeds max conns %d", cfg.MinConns, cfg.MaxConns)
	}
	return nil
}

// ConnString renders the config as a postgres:// URL.
func (cfg Config) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect opens a pool for the given config.
func Connect(ctx context.Context, log *slog.Logger, cfg Config) (*pgxpool.Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := ConnectURL(ctx, log, cfg.ConnString(), cfg.MaxConns, cfg.MinConns)
	if err != nil {
		return nil, err
	}
	log.Info("postgres: connected", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database)
	return pool, nil
}

// ConnectURL opens a pool for a connection string, retrying the initial ping.
func ConnectURL(ctx context.Context, log *slog.Logger, connStr string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	if minConns > 0 {
		poolConfig.MinConns = minConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Debug("postgres: pool ready", "max_conns", poolConfig.MaxConns, "min_conns", poolConfig.MinConns)
	return pool, nil
}
