package metatesting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresConfig holds the PostgreSQL test container configuration.
type PostgresConfig struct {
	Database       string
	Username       string
	Password       string
	ContainerImage string
}

func (cfg *PostgresConfig) Validate() error {
	if cfg.Database == "" {
		cfg.Database = "metabonding"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}
	if cfg.ContainerImage == "" {
		cfg.ContainerImage = "postgres:16-alpine"
	}
	return nil
}

// PostgresDB is a PostgreSQL test container.
type PostgresDB struct {
	log       *slog.Logger
	connStr   string
	container *tcpostgres.PostgresContainer
}

func (db *PostgresDB) ConnStr() string { return db.connStr }

func (db *PostgresDB) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.container.Terminate(ctx); err != nil {
		db.log.Error("failed to terminate PostgreSQL container", "error", err)
	}
}

// NewPostgresDB starts a PostgreSQL container, retrying flaky container starts.
func NewPostgresDB(ctx context.Context, log *slog.Logger, cfg *PostgresConfig) (*PostgresDB, error) {
	if cfg == nil {
		cfg = &PostgresConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate postgres config: %w", err)
	}

	var (
		container *tcpostgres.PostgresContainer
		lastErr   error
	)
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		container, err = tcpostgres.Run(ctx,
			cfg.ContainerImage,
			tcpostgres.WithDatabase(cfg.Database),
			tcpostgres.WithUsername(cfg.Username),
			tcpostgres.WithPassword(cfg.Password),
			tcpostgres.BasicWaitStrategies(),
			tcpostgres.WithSQLDriver("pgx"),
		)
		if err == nil {
			break
		}
		lastErr = err
		if !isRetryableContainerStartErr(err) || attempt == 3 {
			return nil, fmt.Errorf("failed to start PostgreSQL container: %w", lastErr)
		}
		time.Sleep(time.Duration(attempt) * 750 * time.Millisecond)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}

	return &PostgresDB{log: log, connStr: connStr, container: container}, nil
}

func isRetryableContainerStartErr(err error) bool {
	s := err.Error()
	return strings.Contains(s, "wait until ready") ||
		strings.Contains(s, "mapped port") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "context deadline exceeded")
}
