// Package checkpoint maintains the append-only ledger of weekly global stake
// snapshots that reward computations divide by.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

var (
	ErrInvalidCheckpointOrder = errors.New("invalid checkpoint week")
	ErrOutOfRange             = errors.New("checkpoint week out of range")
)

type LedgerConfig struct {
	Logger *slog.Logger
	Store  state.Store
	Clock  week.Clock
}

func (cfg *LedgerConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Clock == nil {
		return errors.New("clock is required")
	}
	return nil
}

type Ledger struct {
	log *slog.Logger
	cfg LedgerConfig
}

func NewLedger(cfg LedgerConfig) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ledger{log: cfg.Logger, cfg: cfg}, nil
}

// Append records the totals for w. It succeeds only when w directly follows the
// last checkpointed week and is not in the future.
func (l *Ledger) Append(ctx context.Context, w week.Week, totalDelegationSupply, totalLKMEXStaked *big.Int) (state.Checkpoint, error) {
	if err := amount.Validate("total delegation supply", totalDelegationSupply); err != nil {
		return state.Checkpoint{}, err
	}
	if err := amount.Validate("total lkmex staked", totalLKMEXStaked); err != nil {
		return state.Checkpoint{}, err
	}
	cp := state.Checkpoint{
		TotalDelegationSupply: totalDelegationSupply,
		TotalLKMEXStaked:      totalLKMEXStaked,
	}.Clone()

	current := l.cfg.Clock.CurrentWeek()
	err := l.cfg.Store.Update(ctx, func(tx state.Writer) error {
		last, err := tx.CheckpointCount(ctx)
		if err != nil {
			return fmt.Errorf("failed to read last checkpoint week: %w", err)
		}
		if w != last+1 || w > current {
			return fmt.Errorf("%w: got %d, last checkpoint %d, current week %d", ErrInvalidCheckpointOrder, w, last, current)
		}
		appended, err := tx.AppendCheckpoint(ctx, cp)
		if err != nil {
			return fmt.Errorf("failed to append checkpoint: %w", err)
		}
		if appended != w {
			return fmt.Errorf("%w: store appended week %d, expected %d", ErrInvalidCheckpointOrder, appended, w)
		}
		return nil
	})
	if err != nil {
		return state.Checkpoint{}, err
	}

	l.log.Info("checkpoint: appended", "week", w,
		"total_delegation_supply", cp.TotalDelegationSupply.String(),
		"total_lkmex_staked", cp.TotalLKMEXStaked.String())
	return cp, nil
}

// Get returns the checkpoint appended as week w.
func (l *Ledger) Get(ctx context.Context, w week.Week) (state.Checkpoint, error) {
	var cp state.Checkpoint
	err := l.cfg.Store.View(ctx, func(tx state.Reader) error {
		var err error
		cp, err = Get(ctx, tx, w)
		return err
	})
	return cp, err
}

// Get reads checkpoint w inside an existing transaction.
func Get(ctx context.Context, tx state.Reader, w week.Week) (state.Checkpoint, error) {
	cp, err := tx.Checkpoint(ctx, w)
	if errors.Is(err, state.ErrNotFound) {
		return state.Checkpoint{}, fmt.Errorf("%w: week %d", ErrOutOfRange, w)
	}
	if err != nil {
		return state.Checkpoint{}, fmt.Errorf("failed to read checkpoint %d: %w", w, err)
	}
	return cp, nil
}

// Len is the number of checkpoints, which is also the last checkpointed week.
func (l *Ledger) Len(ctx context.Context) (week.Week, error) {
	var n week.Week
	err := l.cfg.Store.View(ctx, func(tx state.Reader) error {
		var err error
		n, err = tx.CheckpointCount(ctx)
		return err
	})
	return n, err
}

func (l *Ledger) CurrentWeek() week.Week {
	return l.cfg.Clock.CurrentWeek()
}
