package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver with database/sql
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// goose keeps its logger, dialect and base FS in package globals.
var gooseMu sync.Mutex

// slogGooseLogger adapts slog.Logger to goose.Logger.
type slogGooseLogger struct {
	log *slog.Logger
}

func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// MigrateUp applies all pending migrations.
func MigrateUp(ctx context.Context, log *slog.Logger, connStr string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	db, err := openMigrationDB(log, connStr)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("postgres: running migrations (up)")
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("postgres: migrations completed")
	return nil
}

// MigrateStatus logs the applied state of every migration.
func MigrateStatus(ctx context.Context, log *slog.Logger, connStr string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	db, err := openMigrationDB(log, connStr)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied migration version.
func SchemaVersion(ctx context.Context, log *slog.Logger, connStr string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	db, err := openMigrationDB(log, connStr)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

func openMigrationDB(log *slog.Logger, connStr string) (*sql.DB, error) {
	goose.SetLogger(&slogGooseLogger{log: log})
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database for migrations: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
