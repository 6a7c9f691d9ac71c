// Package state defines the persisted state owned by the reward engine: the
// append-only checkpoint list, the per-project deposited flags and the
// per-(user, week) claimed flags.
//
// State is created at initialization (schema migrations or NewMemoryStore) and is
// only mutated through Store.Update by the append-checkpoint and deposit
// commands. Nothing is ever deleted.
package state

import (
	"context"
	"errors"
	"math/big"

	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

var ErrNotFound = errors.New("not found")

// Checkpoint holds the global totals at a week boundary.
type Checkpoint struct {
	TotalDelegationSupply *big.Int
	TotalLKMEXStaked      *big.Int
}

// Clone returns a deep copy so callers never share big.Int storage with the store.
func (c Checkpoint) Clone() Checkpoint {
	return Checkpoint{
		TotalDelegationSupply: cloneInt(c.TotalDelegationSupply),
		TotalLKMEXStaked:      cloneInt(c.TotalLKMEXStaked),
	}
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

type UserAddress string

type Reader interface {
	// CheckpointCount is the number of appended checkpoints, which is also the
	// last checkpointed week.
	CheckpointCount(ctx context.Context) (week.Week, error)
	// Checkpoint returns ErrNotFound for weeks outside [1, CheckpointCount].
	Checkpoint(ctx context.Context, w week.Week) (Checkpoint, error)
	IsDeposited(ctx context.Context, id project.ID) (bool, error)
	DepositedProjects(ctx context.Context) (map[project.ID]bool, error)
	IsClaimed(ctx context.Context, user UserAddress, w week.Week) (bool, error)
}

type Writer interface {
	Reader
	// AppendCheckpoint stores cp as week CheckpointCount()+1 and returns that week.
	AppendCheckpoint(ctx context.Context, cp Checkpoint) (week.Week, error)
	// SetDeposited marks the project as funded. Setting an already set flag is an error.
	SetDeposited(ctx context.Context, id project.ID) error
}

// Store runs reads and all-or-nothing writes against the persisted state. If the
// function passed to Update returns an error, none of its writes are applied.
type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Writer) error) error
	Ping(ctx context.Context) error
}
