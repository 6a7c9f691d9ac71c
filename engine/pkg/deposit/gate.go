// Package deposit gates a project's participation in reward computation on a
// single, exact funding of its reward pool.
package deposit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
)

var (
	ErrAlreadyDeposited = errors.New("rewards already deposited")
	ErrUnknownProject   = errors.New("unknown project")
	ErrTokenMismatch    = errors.New("invalid payment token")
	ErrAmountMismatch   = errors.New("invalid payment amount")
)

// Payment is the token and amount attached to a deposit. Moving the funds is
// done elsewhere; the gate only validates them.
type Payment struct {
	Token  string
	Amount *big.Int
}

type GateConfig struct {
	Logger   *slog.Logger
	Store    state.Store
	Registry project.Registry
}

func (cfg *GateConfig) Validate() error {
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

type Gate struct {
	log *slog.Logger
	cfg GateConfig
}

func NewGate(cfg GateConfig) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gate{log: cfg.Logger, cfg: cfg}, nil
}

// Deposit marks the project's reward pool as funded. The payment must be in the
// project's reward token and equal its delegation plus lkmex reward supply.
func (g *Gate) Deposit(ctx context.Context, id project.ID, payment Payment) (project.Project, error) {
	var funded project.Project
	err := g.cfg.Store.Update(ctx, func(tx state.Writer) error {
		deposited, err := tx.IsDeposited(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read deposit flag: %w", err)
		}
		if deposited {
			return fmt.Errorf("%w: project %s", ErrAlreadyDeposited, id)
		}

		p, ok, err := g.cfg.Registry.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to look up project %s: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProject, id)
		}

		if payment.Token != p.RewardToken {
			return fmt.Errorf("%w: got %q, project %s pays in %q", ErrTokenMismatch, payment.Token, id, p.RewardToken)
		}
		required := p.TotalRewardSupply()
		if payment.Amount == nil || payment.Amount.Cmp(required) != 0 {
			return fmt.Errorf("%w: got %s, project %s requires %s", ErrAmountMismatch, amount.OrZero(payment.Amount), id, required)
		}

		if err := tx.SetDeposited(ctx, id); err != nil {
			return fmt.Errorf("failed to set deposit flag: %w", err)
		}
		funded = p
		return nil
	})
	if err != nil {
		return project.Project{}, err
	}

	g.log.Info("deposit: rewards deposited", "project_id", id, "token", payment.Token, "amount", payment.Amount.String())
	return funded, nil
}

func (g *Gate) IsDeposited(ctx context.Context, id project.ID) (bool, error) {
	var deposited bool
	err := g.cfg.Store.View(ctx, func(tx state.Reader) error {
		var err error
		deposited, err = tx.IsDeposited(ctx, id)
		return err
	})
	return deposited, err
}
