package reward

import (
	"math/big"
	"testing"

	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
	"github.com/stretchr/testify/require"
)

func newProject(delegationSupply, lkmexSupply int64, start, end uint64) project.Project {
	return project.Project{
		ID:                     "p",
		RewardToken:            "TKN-000001",
		DelegationRewardSupply: big.NewInt(delegationSupply),
		LKMEXRewardSupply:      big.NewInt(lkmexSupply),
		StartWeek:              weekOf(start),
		EndWeek:                weekOf(end),
	}
}

func checkpointOf(totalDelegation, totalLKMEX int64) state.Checkpoint {
	return state.Checkpoint{
		TotalDelegationSupply: big.NewInt(totalDelegation),
		TotalLKMEXStaked:      big.NewInt(totalLKMEX),
	}
}

func stakeOf(delegation, lkmex int64) Stake {
	return Stake{Delegation: big.NewInt(delegation), LKMEXStaked: big.NewInt(lkmex)}
}

func TestMetabonding_Reward_Calculate(t *testing.T) {
	t.Parallel()

	t.Run("delegation only example", func(t *testing.T) {
		t.Parallel()
		got := Calculate(newProject(1000, 0, 1, 4), stakeOf(10, 0), checkpointOf(100, 0))
		require.Equal(t, "25", got.String())
	})

	t.Run("zero total supply yields zero", func(t *testing.T) {
		t.Parallel()
		got := Calculate(newProject(1000, 0, 1, 4), stakeOf(10, 0), checkpointOf(0, 0))
		require.Equal(t, "0", got.String())

		got = Calculate(newProject(1000, 1000, 1, 4), stakeOf(1_000_000, 5), checkpointOf(0, 10))
		require.Equal(t, "125", got.String())
	})

	t.Run("pools are floored separately before the ratio", func(t *testing.T) {
		t.Parallel()
		// 10/3 = 3 and 11/3 = 3 separately; combining first would give 21/3 = 7.
		p := newProject(10, 11, 1, 3)
		d, l := WeeklyPools(p)
		require.Equal(t, "3", d.String())
		require.Equal(t, "3", l.String())

		got := Calculate(p, stakeOf(1, 1), checkpointOf(1, 1))
		require.Equal(t, "6", got.String())
	})

	t.Run("ratio floors the product quotient", func(t *testing.T) {
		t.Parallel()
		// weekly pool 333; 333 * 1 / 3 = 111; 333 * 2 / 3 = 222.
		p := newProject(999, 0, 1, 3)
		require.Equal(t, "111", Calculate(p, stakeOf(1, 0), checkpointOf(3, 0)).String())
		require.Equal(t, "222", Calculate(p, stakeOf(2, 0), checkpointOf(3, 0)).String())
		// 333 * 1 / 7 = 47.57 -> 47
		require.Equal(t, "47", Calculate(p, stakeOf(1, 0), checkpointOf(7, 0)).String())
	})

	t.Run("sums both dimensions", func(t *testing.T) {
		t.Parallel()
		// pools 100 and 50; 100*1/4 = 25; 50*3/5 = 30.
		got := Calculate(newProject(200, 100, 5, 6), stakeOf(1, 3), checkpointOf(4, 5))
		require.Equal(t, "55", got.String())
	})

	t.Run("exact for amounts beyond 64 bits", func(t *testing.T) {
		t.Parallel()
		supply, _ := new(big.Int).SetString("1000000000000000000000000000", 10) // 1e27
		total, _ := new(big.Int).SetString("3000000000000000000000000", 10)     // 3e24
		user, _ := new(big.Int).SetString("1000000000000000000000", 10)         // 1e21
		p := project.Project{
			ID: "p", RewardToken: "T", StartWeek: 1, EndWeek: 10,
			DelegationRewardSupply: supply, LKMEXRewardSupply: new(big.Int),
		}
		got := Calculate(p, Stake{Delegation: user, LKMEXStaked: new(big.Int)},
			state.Checkpoint{TotalDelegationSupply: total, TotalLKMEXStaked: new(big.Int)})
		// 1e26 * 1e21 / 3e24 = 33333333333333333333333.33 -> floor
		require.Equal(t, "33333333333333333333333", got.String())
	})

	t.Run("nil stake counts as zero", func(t *testing.T) {
		t.Parallel()
		got := Calculate(newProject(1000, 1000, 1, 1), Stake{}, checkpointOf(10, 10))
		require.Equal(t, "0", got.String())
	})
}

func TestMetabonding_Reward_Calculate_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	p := newProject(1000, 500, 1, 4)
	s := stakeOf(10, 20)
	cp := checkpointOf(100, 200)

	first := Calculate(p, s, cp)
	second := Calculate(p, s, cp)
	require.Equal(t, first.String(), second.String())

	require.Equal(t, "1000", p.DelegationRewardSupply.String())
	require.Equal(t, "500", p.LKMEXRewardSupply.String())
	require.Equal(t, "10", s.Delegation.String())
	require.Equal(t, "20", s.LKMEXStaked.String())
	require.Equal(t, "100", cp.TotalDelegationSupply.String())
	require.Equal(t, "200", cp.TotalLKMEXStaked.String())
}

func TestMetabonding_Reward_Ratio(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0", Ratio(big.NewInt(10), big.NewInt(5), big.NewInt(0)).String())
	require.Equal(t, "0", Ratio(big.NewInt(10), big.NewInt(5), nil).String())
	require.Equal(t, "5", Ratio(big.NewInt(10), big.NewInt(5), big.NewInt(10)).String())
	require.Equal(t, "0", Ratio(big.NewInt(0), big.NewInt(5), big.NewInt(10)).String())
}

func weekOf(n uint64) week.Week { return week.Week(n) }
