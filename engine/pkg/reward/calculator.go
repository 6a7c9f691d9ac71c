// Package reward computes a user's weekly entitlement from a project's pools.
//
// All arithmetic is integer-exact and floors at every division. The delegation
// and lkmex pools are divided by the project duration separately, and the
// remainders of each division are not redistributed.
package reward

import (
	"math/big"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
)

// Stake is a user's position in both stake dimensions for one week.
type Stake struct {
	Delegation  *big.Int
	LKMEXStaked *big.Int
}

// WeeklyPools returns the per-week delegation and lkmex pools of p.
func WeeklyPools(p project.Project) (delegation, lkmex *big.Int) {
	duration := new(big.Int).SetUint64(p.DurationWeeks())
	delegation = new(big.Int).Quo(amount.OrZero(p.DelegationRewardSupply), duration)
	lkmex = new(big.Int).Quo(amount.OrZero(p.LKMEXRewardSupply), duration)
	return delegation, lkmex
}

// Ratio is floor(pool * part / total), or zero when total is zero.
func Ratio(pool, part, total *big.Int) *big.Int {
	if total == nil || total.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount.OrZero(pool), amount.OrZero(part))
	return out.Quo(out, total)
}

// Calculate returns the reward of a user holding stake for project p in the
// week described by cp. None of the arguments are modified.
func Calculate(p project.Project, stake Stake, cp state.Checkpoint) *big.Int {
	delegationPool, lkmexPool := WeeklyPools(p)
	delegation := Ratio(delegationPool, stake.Delegation, cp.TotalDelegationSupply)
	lkmex := Ratio(lkmexPool, stake.LKMEXStaked, cp.TotalLKMEXStaked)
	return delegation.Add(delegation, lkmex)
}
