// Package bootstrap assembles a Postgres-backed engine from environment
// configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/metabonding/engine/pkg/audit"
	"github.com/malbeclabs/metabonding/engine/pkg/config"
	"github.com/malbeclabs/metabonding/engine/pkg/engine"
	"github.com/malbeclabs/metabonding/engine/pkg/postgres"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

// Deps are the opened backends and the engine built on them.
type Deps struct {
	Pool     *pgxpool.Pool
	Store    *postgres.Store
	Registry *postgres.Registry
	Clock    *week.EpochClock
	Audit    audit.Recorder
	Engine   *engine.Engine

	closers []func()
}

// Close releases backends in reverse open order.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// Open connects to Postgres and, when configured, the ClickHouse audit log.
func Open(ctx context.Context, log *slog.Logger, env config.Env) (*Deps, error) {
	if err := env.RequireGenesis(); err != nil {
		return nil, err
	}

	d := &Deps{}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	pool, err := postgres.Connect(ctx, log, env.Postgres())
	if err != nil {
		return nil, err
	}
	d.Pool = pool
	d.closers = append(d.closers, pool.Close)

	d.Store, err = postgres.NewStore(postgres.StoreConfig{Logger: log, Pool: pool})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	d.Registry = postgres.NewRegistry(log, pool)
	d.Clock = week.NewEpochClock(clockwork.NewRealClock(), env.Genesis)

	d.Audit, err = openAudit(ctx, log, env, d)
	if err != nil {
		return nil, err
	}

	d.Engine, err = engine.New(engine.Config{
		Logger:           log,
		Store:            d.Store,
		Registry:         d.Registry,
		Clock:            d.Clock,
		Audit:            d.Audit,
		IndexActiveWeeks: env.IndexActiveWeeks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	ok = true
	log.Info("bootstrap: engine ready",
		"genesis", env.Genesis,
		"current_week", d.Clock.CurrentWeek(),
		"audit", env.AuditEnabled(),
		"index_active_weeks", env.IndexActiveWeeks)
	return d, nil
}

func openAudit(ctx context.Context, log *slog.Logger, env config.Env, d *Deps) (audit.Recorder, error) {
	if !env.AuditEnabled() {
		return audit.Nop{}, nil
	}

	conn, err := audit.OpenClickHouse(ctx, log, env.ClickHouse())
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, func() {
		if err := conn.Close(); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("bootstrap: failed to close clickhouse", "error", err)
		}
	})

	recorder, err := audit.NewClickHouseRecorder(audit.ClickHouseRecorderConfig{
		Logger: log,
		Conn:   conn,
		Table:  env.AuditTable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create audit recorder: %w", err)
	}
	if err := recorder.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return recorder, nil
}
