// Package engine wires the checkpoint ledger, the deposit gate and the rewards
// query service over one state store and project registry, and records
// accepted commands to the audit log.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
	"github.com/malbeclabs/metabonding/engine/pkg/audit"
	"github.com/malbeclabs/metabonding/engine/pkg/checkpoint"
	"github.com/malbeclabs/metabonding/engine/pkg/deposit"
	"github.com/malbeclabs/metabonding/engine/pkg/metrics"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/reward"
	"github.com/malbeclabs/metabonding/engine/pkg/rewards"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

const (
	CommandAppendCheckpoint = "append_checkpoint"
	CommandDeposit          = "deposit"
)

type Config struct {
	Logger   *slog.Logger
	Store    state.Store
	Registry project.Registry
	Clock    week.Clock

	// Audit defaults to audit.Nop.
	Audit audit.Recorder
	// WallClock stamps audit events. Defaults to the real clock.
	WallClock clockwork.Clock

	IndexActiveWeeks bool
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Registry == nil {
		return errors.New("registry is required")
	}
	if cfg.Clock == nil {
		return errors.New("clock is required")
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.Nop{}
	}
	if cfg.WallClock == nil {
		cfg.WallClock = clockwork.NewRealClock()
	}
	return nil
}

type Engine struct {
	log     *slog.Logger
	cfg     Config
	ledger  *checkpoint.Ledger
	gate    *deposit.Gate
	rewards *rewards.Service
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ledger, err := checkpoint.NewLedger(checkpoint.LedgerConfig{
		Logger: cfg.Logger,
		Store:  cfg.Store,
		Clock:  cfg.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint ledger: %w", err)
	}

	gate, err := deposit.NewGate(deposit.GateConfig{
		Logger:   cfg.Logger,
		Store:    cfg.Store,
		Registry: cfg.Registry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create deposit gate: %w", err)
	}

	svc, err := rewards.NewService(rewards.ServiceConfig{
		Logger:           cfg.Logger,
		Store:            cfg.Store,
		Registry:         cfg.Registry,
		IndexActiveWeeks: cfg.IndexActiveWeeks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rewards service: %w", err)
	}

	return &Engine{
		log:     cfg.Logger,
		cfg:     cfg,
		ledger:  ledger,
		gate:    gate,
		rewards: svc,
	}, nil
}

// AddCheckpoint appends the totals for week w.
func (e *Engine) AddCheckpoint(ctx context.Context, w week.Week, totalDelegationSupply, totalLKMEXStaked *big.Int) (state.Checkpoint, error) {
	cp, err := e.ledger.Append(ctx, w, totalDelegationSupply, totalLKMEXStaked)
	metrics.CommandsTotal.WithLabelValues(CommandAppendCheckpoint, commandStatus(err)).Inc()
	if err != nil {
		return state.Checkpoint{}, err
	}
	metrics.LastCheckpointWeek.Set(float64(w))

	e.record(ctx, audit.CheckpointAppended(w, cp.TotalDelegationSupply, cp.TotalLKMEXStaked, e.cfg.WallClock.Now()))
	return cp, nil
}

// DepositRewards funds the reward pool of project id.
func (e *Engine) DepositRewards(ctx context.Context, id project.ID, payment deposit.Payment) error {
	_, err := e.gate.Deposit(ctx, id, payment)
	metrics.CommandsTotal.WithLabelValues(CommandDeposit, commandStatus(err)).Inc()
	if err != nil {
		return err
	}

	e.record(ctx, audit.RewardsDeposited(id, payment.Token, payment.Amount, e.cfg.WallClock.Now()))
	return nil
}

// RewardsForWeek returns the non-zero rewards of stake in week w.
func (e *Engine) RewardsForWeek(ctx context.Context, w week.Week, stake reward.Stake) ([]rewards.Reward, error) {
	start := time.Now()
	out, err := e.rewards.ForWeek(ctx, w, stake)
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	metrics.QueriesTotal.WithLabelValues(commandStatus(err)).Inc()
	return out, err
}

func (e *Engine) Checkpoint(ctx context.Context, w week.Week) (state.Checkpoint, error) {
	return e.ledger.Get(ctx, w)
}

func (e *Engine) CheckpointCount(ctx context.Context) (week.Week, error) {
	return e.ledger.Len(ctx)
}

func (e *Engine) CurrentWeek() week.Week {
	return e.ledger.CurrentWeek()
}

// ProjectStatus is a registered project with its deposit flag and weekly pools.
type ProjectStatus struct {
	Project              project.Project
	Deposited            bool
	WeeklyDelegationPool *big.Int
	WeeklyLKMEXPool      *big.Int
}

func newProjectStatus(p project.Project, deposited bool) ProjectStatus {
	deleg, lkmex := reward.WeeklyPools(p)
	return ProjectStatus{
		Project:              p,
		Deposited:            deposited,
		WeeklyDelegationPool: deleg,
		WeeklyLKMEXPool:      lkmex,
	}
}

// Projects lists the registry in order.
func (e *Engine) Projects(ctx context.Context) ([]ProjectStatus, error) {
	projects, err := e.cfg.Registry.Iterate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	var deposited map[project.ID]bool
	if err := e.cfg.Store.View(ctx, func(tx state.Reader) error {
		deposited, err = tx.DepositedProjects(ctx)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to read deposit flags: %w", err)
	}

	out := make([]ProjectStatus, 0, len(projects))
	for _, p := range projects {
		out = append(out, newProjectStatus(p, deposited[p.ID]))
	}
	return out, nil
}

func (e *Engine) Project(ctx context.Context, id project.ID) (ProjectStatus, bool, error) {
	p, ok, err := e.cfg.Registry.Get(ctx, id)
	if err != nil || !ok {
		return ProjectStatus{}, ok, err
	}
	deposited, err := e.gate.IsDeposited(ctx, id)
	if err != nil {
		return ProjectStatus{}, false, fmt.Errorf("failed to read deposit flag: %w", err)
	}
	return newProjectStatus(p, deposited), true, nil
}

// IsClaimed reads the persisted claimed flag. Nothing in the engine sets it.
func (e *Engine) IsClaimed(ctx context.Context, user state.UserAddress, w week.Week) (bool, error) {
	var claimed bool
	err := e.cfg.Store.View(ctx, func(tx state.Reader) error {
		var err error
		claimed, err = tx.IsClaimed(ctx, user, w)
		return err
	})
	return claimed, err
}

func (e *Engine) Ping(ctx context.Context) error {
	return e.cfg.Store.Ping(ctx)
}

// SyncMetrics publishes gauges derived from persisted state.
func (e *Engine) SyncMetrics(ctx context.Context) error {
	n, err := e.CheckpointCount(ctx)
	if err != nil {
		return err
	}
	metrics.LastCheckpointWeek.Set(float64(n))
	return nil
}

// record writes audit events best effort. The command has already committed.
func (e *Engine) record(ctx context.Context, ev audit.Event) {
	if err := e.cfg.Audit.Record(ctx, ev); err != nil {
		metrics.AuditRecordsTotal.WithLabelValues(string(ev.Type), "error").Inc()
		e.log.Warn("engine: failed to record audit event", "event_type", ev.Type, "event_id", ev.ID, "error", err)
		return
	}
	metrics.AuditRecordsTotal.WithLabelValues(string(ev.Type), "ok").Inc()
}

// IsRejected reports whether err is a validation failure rather than an
// infrastructure error.
func IsRejected(err error) bool {
	for _, target := range []error{
		checkpoint.ErrInvalidCheckpointOrder,
		checkpoint.ErrOutOfRange,
		deposit.ErrAlreadyDeposited,
		deposit.ErrUnknownProject,
		deposit.ErrTokenMismatch,
		deposit.ErrAmountMismatch,
		rewards.ErrWeekNotCheckpointed,
		amount.ErrInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func commandStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsRejected(err):
		return "rejected"
	default:
		return "error"
	}
}
