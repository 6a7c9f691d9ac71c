package admin

import (
	"context"
	"log/slog"

	"github.com/malbeclabs/metabonding/engine/pkg/postgres"
)

// PgMigrateUp runs all pending PostgreSQL migrations.
func PgMigrateUp(ctx context.Context, log *slog.Logger, cfg postgres.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return postgres.MigrateUp(ctx, log, cfg.ConnString())
}

// PgMigrateStatus logs the status of all PostgreSQL migrations.
func PgMigrateStatus(ctx context.Context, log *slog.Logger, cfg postgres.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Info("PostgreSQL migration status")
	return postgres.MigrateStatus(ctx, log, cfg.ConnString())
}
