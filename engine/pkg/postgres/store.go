package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
	"github.com/malbeclabs/metabonding/utils/pkg/retry"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type StoreConfig struct {
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Retry  retry.Config
}

func (cfg *StoreConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Pool == nil {
		return errors.New("postgres pool is required")
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	return nil
}

// Store implements state.Store. Updates hold an exclusive lock on the
// checkpoint and deposit tables so commands are serialized across processes.
type Store struct {
	log *slog.Logger
	cfg StoreConfig
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{log: cfg.Logger, cfg: cfg}, nil
}

func (s *Store) View(ctx context.Context, fn func(state.Reader) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return retry.Do(ctx, s.cfg.Retry, func() error {
		return pgx.BeginTxFunc(ctx, s.cfg.Pool, opts, func(tx pgx.Tx) error {
			return fn(&pgTx{tx: tx})
		})
	})
}

// Update runs fn in a single attempt; only View retries.
func (s *Store) Update(ctx context.Context, fn func(state.Writer) error) error {
	return pgx.BeginFunc(ctx, s.cfg.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "LOCK TABLE rewards_checkpoints, rewards_deposited IN EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("failed to lock state tables: %w", err)
		}
		return fn(&pgTx{tx: tx, writable: true})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.cfg.Pool.Ping(ctx)
}

type pgTx struct {
	tx       pgx.Tx
	writable bool
}

func (t *pgTx) CheckpointCount(ctx context.Context) (week.Week, error) {
	var n int64
	if err := t.tx.QueryRow(ctx, "SELECT COALESCE(MAX(week), 0) FROM rewards_checkpoints").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count checkpoints: %w", err)
	}
	return week.Week(n), nil
}

func (t *pgTx) Checkpoint(ctx context.Context, w week.Week) (state.Checkpoint, error) {
	var deleg, lkmex pgtype.Numeric
	err := t.tx.QueryRow(ctx,
		"SELECT total_delegation_supply, total_lkmex_staked FROM rewards_checkpoints WHERE week = $1",
		int64(w),
	).Scan(&deleg, &lkmex)
	if errors.Is(err, pgx.ErrNoRows) {
		return state.Checkpoint{}, state.ErrNotFound
	}
	if err != nil {
		return state.Checkpoint{}, fmt.Errorf("failed to read checkpoint %d: %w", w, err)
	}

	var cp state.Checkpoint
	if cp.TotalDelegationSupply, err = fromNumeric(deleg); err != nil {
		return state.Checkpoint{}, fmt.Errorf("checkpoint %d delegation supply: %w", w, err)
	}
	if cp.TotalLKMEXStaked, err = fromNumeric(lkmex); err != nil {
		return state.Checkpoint{}, fmt.Errorf("checkpoint %d lkmex staked: %w", w, err)
	}
	return cp, nil
}

func (t *pgTx) IsDeposited(ctx context.Context, id project.ID) (bool, error) {
	var ok bool
	if err := t.tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM rewards_deposited WHERE project_id = $1)", string(id),
	).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to read deposit flag for %s: %w", id, err)
	}
	return ok, nil
}

func (t *pgTx) DepositedProjects(ctx context.Context) (map[project.ID]bool, error) {
	rows, err := t.tx.Query(ctx, "SELECT project_id FROM rewards_deposited")
	if err != nil {
		return nil, fmt.Errorf("failed to query deposit flags: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan deposit flags: %w", err)
	}
	out := make(map[project.ID]bool, len(ids))
	for _, id := range ids {
		out[project.ID(id)] = true
	}
	return out, nil
}

func (t *pgTx) IsClaimed(ctx context.Context, user state.UserAddress, w week.Week) (bool, error) {
	var ok bool
	if err := t.tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM rewards_claimed WHERE user_address = $1 AND week = $2)",
		string(user), int64(w),
	).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to read claimed flag: %w", err)
	}
	return ok, nil
}

func (t *pgTx) AppendCheckpoint(ctx context.Context, cp state.Checkpoint) (week.Week, error) {
	if !t.writable {
		return 0, errors.New("append checkpoint: read-only transaction")
	}
	last, err := t.CheckpointCount(ctx)
	if err != nil {
		return 0, err
	}
	w := last + 1
	if _, err := t.tx.Exec(ctx,
		"INSERT INTO rewards_checkpoints (week, total_delegation_supply, total_lkmex_staked) VALUES ($1, $2, $3)",
		int64(w), toNumeric(cp.TotalDelegationSupply), toNumeric(cp.TotalLKMEXStaked),
	); err != nil {
		return 0, fmt.Errorf("failed to insert checkpoint %d: %w", w, err)
	}
	return w, nil
}

func (t *pgTx) SetDeposited(ctx context.Context, id project.ID) error {
	if !t.writable {
		return errors.New("set deposited: read-only transaction")
	}
	_, err := t.tx.Exec(ctx, "INSERT INTO rewards_deposited (project_id) VALUES ($1)", string(id))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("project %s already marked deposited", id)
		case pgForeignKeyViolation:
			return fmt.Errorf("project %s is not registered", id)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to mark %s deposited: %w", id, err)
	}
	return nil
}
