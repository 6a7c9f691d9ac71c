package week

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestMetabonding_Week_EpochClock(t *testing.T) {
	t.Parallel()

	genesis := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

	t.Run("zero before genesis", func(t *testing.T) {
		t.Parallel()
		clock := clockwork.NewFakeClockAt(genesis.Add(-time.Second))
		require.Equal(t, Week(0), NewEpochClock(clock, genesis).CurrentWeek())
	})

	t.Run("week 1 starts at genesis", func(t *testing.T) {
		t.Parallel()
		clock := clockwork.NewFakeClockAt(genesis)
		require.Equal(t, Week(1), NewEpochClock(clock, genesis).CurrentWeek())
	})

	t.Run("advances every seven days", func(t *testing.T) {
		t.Parallel()
		clock := clockwork.NewFakeClockAt(genesis)
		c := NewEpochClock(clock, genesis)

		clock.Advance(Duration - time.Nanosecond)
		require.Equal(t, Week(1), c.CurrentWeek())

		clock.Advance(time.Nanosecond)
		require.Equal(t, Week(2), c.CurrentWeek())

		clock.Advance(10 * Duration)
		require.Equal(t, Week(12), c.CurrentWeek())
	})

	t.Run("start of week", func(t *testing.T) {
		t.Parallel()
		c := NewEpochClock(clockwork.NewFakeClockAt(genesis), genesis)
		require.True(t, c.StartOf(0).IsZero())
		require.Equal(t, genesis, c.StartOf(1))
		require.Equal(t, genesis.Add(2*Duration), c.StartOf(3))
	})
}

func TestMetabonding_Week_Parse(t *testing.T) {
	t.Parallel()

	w, err := Parse("17")
	require.NoError(t, err)
	require.Equal(t, Week(17), w)

	// Week 0 parses; it precedes genesis and is never checkpointed.
	w, err = Parse("0")
	require.NoError(t, err)
	require.Equal(t, Week(0), w)

	for _, in := range []string{"-1", "abc", "", "1.5"} {
		_, err := Parse(in)
		require.Error(t, err, in)
	}
}

func TestMetabonding_Week_InRange(t *testing.T) {
	t.Parallel()

	require.True(t, InRange(1, 1, 4))
	require.True(t, InRange(4, 1, 4))
	require.False(t, InRange(5, 1, 4))
	require.False(t, InRange(2, 3, 3))
}
