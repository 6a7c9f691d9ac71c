// Package rewards answers "what does this stake earn in week w" across all
// funded projects.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/malbeclabs/metabonding/engine/pkg/checkpoint"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/reward"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

var ErrWeekNotCheckpointed = errors.New("week not checkpointed")

// Reward is one project's payout for a week.
type Reward struct {
	ProjectID project.ID
	Token     string
	Amount    *big.Int
}

type ServiceConfig struct {
	Logger   *slog.Logger
	Store    state.Store
	Registry project.Registry

	// IndexActiveWeeks caches, per week, the registry-ordered list of projects
	// whose window contains that week. Each query compares the registry length
	// with the cached entry and rebuilds it when projects were added.
	IndexActiveWeeks bool
}

func (cfg *ServiceConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Registry == nil {
		return errors.New("registry is required")
	}
	return nil
}

type Service struct {
	log   *slog.Logger
	cfg   ServiceConfig
	index *activeIndex
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{log: cfg.Logger, cfg: cfg}
	if cfg.IndexActiveWeeks {
		s.index = newActiveIndex(cfg.Registry)
	}
	return s, nil
}

// ForWeek returns the non-zero rewards of a user holding stake in week w, in
// registry order. Undeposited projects and projects not active in w are skipped.
func (s *Service) ForWeek(ctx context.Context, w week.Week, stake reward.Stake) ([]Reward, error) {
	var out []Reward
	err := s.cfg.Store.View(ctx, func(tx state.Reader) error {
		cp, err := checkpoint.Get(ctx, tx, w)
		if errors.Is(err, checkpoint.ErrOutOfRange) {
			return fmt.Errorf("%w: %d", ErrWeekNotCheckpointed, w)
		}
		if err != nil {
			return err
		}

		deposited, err := tx.DepositedProjects(ctx)
		if err != nil {
			return fmt.Errorf("failed to read deposit flags: %w", err)
		}

		candidates, err := s.activeProjects(ctx, w)
		if err != nil {
			return err
		}

		out = make([]Reward, 0, len(candidates))
		for _, p := range candidates {
			if !deposited[p.ID] || !p.ActiveIn(w) {
				continue
			}
			amt := reward.Calculate(p, stake, cp)
			if amt.Sign() == 0 {
				continue
			}
			out = append(out, Reward{ProjectID: p.ID, Token: p.RewardToken, Amount: amt})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("rewards: computed week", "week", w, "results", len(out))
	return out, nil
}

func (s *Service) activeProjects(ctx context.Context, w week.Week) ([]project.Project, error) {
	if s.index != nil {
		return s.index.projectsFor(ctx, w)
	}
	projects, err := s.cfg.Registry.Iterate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// ResetIndex drops every cached week. It is a no-op without IndexActiveWeeks.
func (s *Service) ResetIndex() {
	if s.index != nil {
		s.index.reset()
	}
}
