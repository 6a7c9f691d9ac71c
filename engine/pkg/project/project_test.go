package project

import (
	"math/big"
	"testing"

	"github.com/malbeclabs/metabonding/engine/pkg/week"
	"github.com/stretchr/testify/require"
)

func testProject(id ID, start, end uint64) Project {
	return Project{
		ID:                     id,
		RewardToken:            "RIDE-7d18e9",
		DelegationRewardSupply: big.NewInt(1000),
		LKMEXRewardSupply:      big.NewInt(500),
		StartWeek:              weekOf(start),
		EndWeek:                weekOf(end),
	}
}

func TestMetabonding_Project_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, testProject("p1", 1, 4).Validate())

	t.Run("rejects inverted window", func(t *testing.T) {
		t.Parallel()
		err := testProject("p1", 5, 4).Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "after end week")
	})

	t.Run("rejects week zero", func(t *testing.T) {
		t.Parallel()
		require.Error(t, testProject("p1", 0, 4).Validate())
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		t.Parallel()
		p := testProject("", 1, 2)
		require.ErrorContains(t, p.Validate(), "project id is required")

		p = testProject("p1", 1, 2)
		p.RewardToken = ""
		require.ErrorContains(t, p.Validate(), "reward token is required")

		p = testProject("p1", 1, 2)
		p.LKMEXRewardSupply = big.NewInt(-1)
		require.Error(t, p.Validate())
	})
}

func TestMetabonding_Project_Derived(t *testing.T) {
	t.Parallel()

	p := testProject("p1", 3, 6)
	require.Equal(t, uint64(4), p.DurationWeeks())
	require.Equal(t, "1500", p.TotalRewardSupply().String())
	require.False(t, p.ActiveIn(2))
	require.True(t, p.ActiveIn(3))
	require.True(t, p.ActiveIn(6))
	require.False(t, p.ActiveIn(7))

	single := testProject("p2", 9, 9)
	require.Equal(t, uint64(1), single.DurationWeeks())
}

func TestMetabonding_Project_MemoryRegistry(t *testing.T) {
	t.Parallel()

	r, err := NewMemoryRegistry(testProject("b", 1, 2), testProject("a", 1, 2), testProject("c", 1, 2))
	require.NoError(t, err)

	t.Run("iterates in registration order", func(t *testing.T) {
		t.Parallel()
		ps, err := r.Iterate(t.Context())
		require.NoError(t, err)
		require.Len(t, ps, 3)
		require.Equal(t, []ID{"b", "a", "c"}, []ID{ps[0].ID, ps[1].ID, ps[2].ID})

		n, err := r.Len(t.Context())
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})

	t.Run("get", func(t *testing.T) {
		t.Parallel()
		p, ok, err := r.Get(t.Context(), "a")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, ID("a"), p.ID)

		_, ok, err = r.Get(t.Context(), "missing")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		t.Parallel()
		_, err := NewMemoryRegistry(testProject("x", 1, 2), testProject("x", 3, 4))
		require.ErrorContains(t, err, "already registered")
	})
}

func weekOf(n uint64) week.Week { return week.Week(n) }
