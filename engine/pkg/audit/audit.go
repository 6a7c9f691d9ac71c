// Package audit records accepted commands to an append-only event log that
// off-chain auditors can use to re-derive every weekly reward.
package audit

import (
	"context"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

type EventType string

const (
	EventCheckpointAppended EventType = "checkpoint_appended"
	EventRewardsDeposited   EventType = "rewards_deposited"
)

// Event is one accepted command. Amounts are decimal strings.
type Event struct {
	ID                    uuid.UUID
	Type                  EventType
	Week                  week.Week
	ProjectID             project.ID
	Token                 string
	Amount                string
	TotalDelegationSupply string
	TotalLKMEXStaked      string
	RecordedAt            time.Time
}

func CheckpointAppended(w week.Week, totalDelegationSupply, totalLKMEXStaked *big.Int, at time.Time) Event {
	return Event{
		ID:                    uuid.New(),
		Type:                  EventCheckpointAppended,
		Week:                  w,
		TotalDelegationSupply: totalDelegationSupply.String(),
		TotalLKMEXStaked:      totalLKMEXStaked.String(),
		RecordedAt:            at.UTC(),
	}
}

func RewardsDeposited(id project.ID, token string, amount *big.Int, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventRewardsDeposited,
		ProjectID:  id,
		Token:      token,
		Amount:     amount.String(),
		RecordedAt: at.UTC(),
	}
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, events ...Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, ...Event) error { return nil }

// Memory keeps events in process, for tests and local runs.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Record(_ context.Context, events ...Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}
