package state

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

type claimKey struct {
	user UserAddress
	week week.Week
}

// MemoryStore keeps state in process. Updates are serialized and buffered, and
// only applied when the update function succeeds.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints []Checkpoint
	deposited   map[project.ID]bool
	claimed     map[claimKey]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deposited: make(map[project.ID]bool),
		claimed:   make(map[claimKey]bool),
	}
}

func (s *MemoryStore) View(ctx context.Context, fn func(Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{store: s})
}

func (s *MemoryStore) Update(ctx context.Context, fn func(Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, deposited: make(map[project.ID]bool)}
	if err := fn(tx); err != nil {
		return err
	}
	s.checkpoints = append(s.checkpoints, tx.checkpoints...)
	maps.Copy(s.deposited, tx.deposited)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// memoryTx reads through pending writes to the committed state.
type memoryTx struct {
	store       *MemoryStore
	checkpoints []Checkpoint
	deposited   map[project.ID]bool
}

func (tx *memoryTx) CheckpointCount(ctx context.Context) (week.Week, error) {
	return week.Week(len(tx.store.checkpoints) + len(tx.checkpoints)), nil
}

func (tx *memoryTx) Checkpoint(ctx context.Context, w week.Week) (Checkpoint, error) {
	committed := uint64(len(tx.store.checkpoints))
	switch {
	case w == 0:
		return Checkpoint{}, ErrNotFound
	case uint64(w) <= committed:
		return tx.store.checkpoints[w-1].Clone(), nil
	case uint64(w)-committed <= uint64(len(tx.checkpoints)):
		return tx.checkpoints[uint64(w)-committed-1].Clone(), nil
	default:
		return Checkpoint{}, ErrNotFound
	}
}

func (tx *memoryTx) IsDeposited(ctx context.Context, id project.ID) (bool, error) {
	return tx.store.deposited[id] || tx.deposited[id], nil
}

func (tx *memoryTx) DepositedProjects(ctx context.Context) (map[project.ID]bool, error) {
	out := make(map[project.ID]bool, len(tx.store.deposited)+len(tx.deposited))
	maps.Copy(out, tx.store.deposited)
	maps.Copy(out, tx.deposited)
	return out, nil
}

func (tx *memoryTx) IsClaimed(ctx context.Context, user UserAddress, w week.Week) (bool, error) {
	return tx.store.claimed[claimKey{user: user, week: w}], nil
}

func (tx *memoryTx) AppendCheckpoint(ctx context.Context, cp Checkpoint) (week.Week, error) {
	if tx.deposited == nil {
		return 0, fmt.Errorf("append checkpoint: read-only transaction")
	}
	tx.checkpoints = append(tx.checkpoints, cp.Clone())
	return tx.CheckpointCount(ctx)
}

func (tx *memoryTx) SetDeposited(ctx context.Context, id project.ID) error {
	if tx.deposited == nil {
		return fmt.Errorf("set deposited: read-only transaction")
	}
	if ok, _ := tx.IsDeposited(ctx, id); ok {
		return fmt.Errorf("project %s already marked deposited", id)
	}
	tx.deposited[id] = true
	return nil
}
