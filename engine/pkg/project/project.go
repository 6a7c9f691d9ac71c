// Package project describes the reward projects registered with the program and
// the registry capability the reward engine reads them through.
package project

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

type ID string

// Project is an immutable reward pool descriptor.
type Project struct {
	ID                     ID
	RewardToken            string
	DelegationRewardSupply *big.Int
	LKMEXRewardSupply      *big.Int
	StartWeek              week.Week
	EndWeek                week.Week
}

func (p Project) Validate() error {
	if p.ID == "" {
		return errors.New("project id is required")
	}
	if p.RewardToken == "" {
		return fmt.Errorf("project %s: reward token is required", p.ID)
	}
	if err := amount.Validate("delegation reward supply", p.DelegationRewardSupply); err != nil {
		return fmt.Errorf("project %s: %w", p.ID, err)
	}
	if err := amount.Validate("lkmex reward supply", p.LKMEXRewardSupply); err != nil {
		return fmt.Errorf("project %s: %w", p.ID, err)
	}
	if p.StartWeek == 0 {
		return fmt.Errorf("project %s: start week must be at least 1", p.ID)
	}
	if p.StartWeek > p.EndWeek {
		return fmt.Errorf("project %s: start week %d is after end week %d", p.ID, p.StartWeek, p.EndWeek)
	}
	return nil
}

// DurationWeeks is the number of weeks the project pays out, bounds inclusive.
func (p Project) DurationWeeks() uint64 {
	return uint64(p.EndWeek-p.StartWeek) + 1
}

func (p Project) ActiveIn(w week.Week) bool {
	return week.InRange(w, p.StartWeek, p.EndWeek)
}

// TotalRewardSupply is the amount a deposit for this project must carry.
func (p Project) TotalRewardSupply() *big.Int {
	return new(big.Int).Add(amount.OrZero(p.DelegationRewardSupply), amount.OrZero(p.LKMEXRewardSupply))
}

// Registry is the read-only view of registered projects. Iterate returns
// projects in an order that is stable across calls for the same registry contents.
// Registries only grow, so Len changes whenever the contents do.
type Registry interface {
	Get(ctx context.Context, id ID) (Project, bool, error)
	Iterate(ctx context.Context) ([]Project, error)
	Len(ctx context.Context) (int, error)
}
