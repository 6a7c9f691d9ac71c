// Package config loads the reward engine's environment configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/malbeclabs/metabonding/engine/pkg/audit"
	"github.com/malbeclabs/metabonding/engine/pkg/postgres"
)

// Env holds every environment variable read by the server and admin binaries.
type Env struct {
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresDB       string `env:"POSTGRES_DB"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	// ClickHouseAddr enables the audit log when set.
	ClickHouseAddr     string `env:"CLICKHOUSE_ADDR"`
	ClickHouseDatabase string `env:"CLICKHOUSE_DATABASE" envDefault:"default"`
	ClickHouseUsername string `env:"CLICKHOUSE_USERNAME" envDefault:"default"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`
	ClickHouseSecure   bool   `env:"CLICKHOUSE_SECURE"`
	AuditTable         string `env:"METABONDING_AUDIT_TABLE" envDefault:"metabonding_audit_events"`

	// Genesis is the start of week 1, RFC 3339.
	Genesis          time.Time `env:"METABONDING_GENESIS"`
	IndexActiveWeeks bool      `env:"METABONDING_INDEX_ACTIVE_WEEKS" envDefault:"false"`

	ListenAddr        string        `env:"LISTEN_ADDR" envDefault:":8080"`
	MetricsAddr       string        `env:"METRICS_ADDR" envDefault:":9090"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins       []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitPerMin   int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"600"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST" envDefault:"50"`
	SentryDSN         string        `env:"SENTRY_DSN"`
	SentryEnvironment string        `env:"SENTRY_ENVIRONMENT" envDefault:"development"`
}

// ParseEnv reads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// ParseEnvFrom reads Env from the given variables only.
func ParseEnvFrom(vars map[string]string) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

func (e Env) Postgres() postgres.Config {
	return postgres.Config{
		Host:     e.PostgresHost,
		Port:     e.PostgresPort,
		Database: e.PostgresDB,
		Username: e.PostgresUser,
		Password: e.PostgresPassword,
		SSLMode:  e.PostgresSSLMode,
		MaxConns: e.PostgresMaxConns,
	}
}

// AuditEnabled reports whether a ClickHouse address is configured.
func (e Env) AuditEnabled() bool {
	return e.ClickHouseAddr != ""
}

func (e Env) ClickHouse() audit.ClickHouseConfig {
	return audit.ClickHouseConfig{
		Addr:     e.ClickHouseAddr,
		Database: e.ClickHouseDatabase,
		Username: e.ClickHouseUsername,
		Password: e.ClickHousePassword,
		Secure:   e.ClickHouseSecure,
	}
}

// RequireGenesis fails when no genesis time is configured.
func (e Env) RequireGenesis() error {
	if e.Genesis.IsZero() {
		return errors.New("METABONDING_GENESIS is required")
	}
	return nil
}
