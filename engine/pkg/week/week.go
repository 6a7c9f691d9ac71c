// Package week defines the weekly discretization of the reward schedule and the
// clock that issues week numbers.
package week

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
)

// Duration is the length of one reward week.
const Duration = 7 * 24 * time.Hour

// Week is a 1-based week ordinal. Zero means "before the first week".
type Week uint64

func (w Week) String() string { return strconv.FormatUint(uint64(w), 10) }

// Parse parses a decimal week number. Week 0 is valid input and is never
// checkpointed.
func Parse(s string) (Week, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid week %q: %w", s, err)
	}
	return Week(n), nil
}

// InRange reports whether w is within [start, end].
func InRange(w, start, end Week) bool {
	return start <= w && w <= end
}

// Clock issues the current week.
type Clock interface {
	CurrentWeek() Week
}

// EpochClock derives the current week from the wall clock and a genesis instant:
// week 1 starts at genesis, and every Duration after that starts the next week.
type EpochClock struct {
	clock   clockwork.Clock
	genesis time.Time
}

func NewEpochClock(clock clockwork.Clock, genesis time.Time) *EpochClock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EpochClock{clock: clock, genesis: genesis.UTC()}
}

func (c *EpochClock) CurrentWeek() Week {
	now := c.clock.Now()
	if now.Before(c.genesis) {
		return 0
	}
	return Week(now.Sub(c.genesis)/Duration) + 1
}

// StartOf returns the instant week w begins. StartOf(0) is the zero time.
func (c *EpochClock) StartOf(w Week) time.Time {
	if w == 0 {
		return time.Time{}
	}
	return c.genesis.Add(time.Duration(w-1) * Duration)
}

func (c *EpochClock) Genesis() time.Time { return c.genesis }

// Fixed is a Clock that always reports the same week.
type Fixed Week

func (f Fixed) CurrentWeek() Week { return Week(f) }
