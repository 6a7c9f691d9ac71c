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
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

var ErrProjectExists = errors.New("project already registered")

const projectColumns = "id, reward_token, delegation_reward_supply, lkmex_reward_supply, start_week, end_week"

// Registry implements project.Registry over the projects table, iterating in
// insertion order.
type Registry struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRegistry(log *slog.Logger, pool *pgxpool.Pool) *Registry {
	return &Registry{log: log, pool: pool}
}

func (r *Registry) Get(ctx context.Context, id project.ID) (project.Project, bool, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = $1", string(id))
	if err != nil {
		return project.Project{}, false, fmt.Errorf("failed to query project %s: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProject)
	if errors.Is(err, pgx.ErrNoRows) {
		return project.Project{}, false, nil
	}
	if err != nil {
		return project.Project{}, false, fmt.Errorf("failed to scan project %s: %w", id, err)
	}
	return p, true, nil
}

func (r *Registry) Iterate(ctx context.Context) ([]project.Project, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, scanProject)
	if err != nil {
		return nil, fmt.Errorf("failed to scan projects: %w", err)
	}
	return projects, nil
}

func (r *Registry) Len(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM projects").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

// Import registers projects in one transaction. Existing ids are rejected
// with ErrProjectExists and nothing is inserted.
func (r *Registry) Import(ctx context.Context, projects ...project.Project) error {
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, p := range projects {
			_, err := tx.Exec(ctx,
				"INSERT INTO projects ("+projectColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
				string(p.ID), p.RewardToken,
				toNumeric(p.DelegationRewardSupply), toNumeric(p.LKMEXRewardSupply),
				int64(p.StartWeek), int64(p.EndWeek),
			)
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return fmt.Errorf("%w: %s", ErrProjectExists, p.ID)
			}
			if err != nil {
				return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("postgres: imported projects", "count", len(projects))
	return nil
}

func scanProject(row pgx.CollectableRow) (project.Project, error) {
	var (
		p                  project.Project
		id                 string
		deleg, lkmex       pgtype.Numeric
		startWeek, endWeek int64
	)
	if err := row.Scan(&id, &p.RewardToken, &deleg, &lkmex, &startWeek, &endWeek); err != nil {
		return project.Project{}, err
	}
	p.ID = project.ID(id)
	p.StartWeek = week.Week(startWeek)
	p.EndWeek = week.Week(endWeek)

	var err error
	if p.DelegationRewardSupply, err = fromNumeric(deleg); err != nil {
		return project.Project{}, fmt.Errorf("project %s delegation supply: %w", id, err)
	}
	if p.LKMEXRewardSupply, err = fromNumeric(lkmex); err != nil {
		return project.Project{}, fmt.Errorf("project %s lkmex supply: %w", id, err)
	}
	return p, nil
}
