package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
	"github.com/malbeclabs/metabonding/engine/pkg/deposit"
	"github.com/malbeclabs/metabonding/engine/pkg/engine"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/reward"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

type AddCheckpointConfig struct {
	Week                  string
	TotalDelegationSupply string
	TotalLKMEXStaked      string
}

// AddCheckpoint appends the totals for the next week.
func AddCheckpoint(ctx context.Context, log *slog.Logger, eng *engine.Engine, cfg AddCheckpointConfig) error {
	w, err := week.Parse(cfg.Week)
	if err != nil {
		return err
	}
	deleg, err := amount.Parse(cfg.TotalDelegationSupply)
	if err != nil {
		return fmt.Errorf("total delegation supply: %w", err)
	}
	lkmex, err := amount.Parse(cfg.TotalLKMEXStaked)
	if err != nil {
		return fmt.Errorf("total lkmex staked: %w", err)
	}

	if _, err := eng.AddCheckpoint(ctx, w, deleg, lkmex); err != nil {
		return err
	}
	log.Info("admin: checkpoint added", "week", w, "current_week", eng.CurrentWeek())
	return nil
}

type DepositConfig struct {
	ProjectID string
	Token     string
	Amount    string
}

// Deposit marks a project's reward pool as funded.
func Deposit(ctx context.Context, log *slog.Logger, eng *engine.Engine, cfg DepositConfig) error {
	if cfg.ProjectID == "" {
		return fmt.Errorf("project id is required")
	}
	amt, err := amount.Parse(cfg.Amount)
	if err != nil {
		return err
	}

	if err := eng.DepositRewards(ctx, project.ID(cfg.ProjectID), deposit.Payment{Token: cfg.Token, Amount: amt}); err != nil {
		return err
	}
	log.Info("admin: rewards deposited", "project_id", cfg.ProjectID, "token", cfg.Token, "amount", amt.String())
	return nil
}

type RewardsConfig struct {
	Week       string
	Delegation string
	LKMEX      string
}

type rewardLine struct {
	ProjectID string `json:"project_id"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
}

// Rewards writes the rewards of a stake in one week as a JSON array.
func Rewards(ctx context.Context, out io.Writer, eng *engine.Engine, cfg RewardsConfig) error {
	w, err := week.Parse(cfg.Week)
	if err != nil {
		return err
	}
	deleg, err := amount.ParseOrZero(cfg.Delegation)
	if err != nil {
		return fmt.Errorf("delegation: %w", err)
	}
	lkmex, err := amount.ParseOrZero(cfg.LKMEX)
	if err != nil {
		return fmt.Errorf("lkmex: %w", err)
	}

	rs, err := eng.RewardsForWeek(ctx, w, reward.Stake{Delegation: deleg, LKMEXStaked: lkmex})
	if err != nil {
		return err
	}
	lines := make([]rewardLine, 0, len(rs))
	for _, r := range rs {
		lines = append(lines, rewardLine{ProjectID: string(r.ProjectID), Token: r.Token, Amount: r.Amount.String()})
	}
	return writeJSON(out, lines)
}

// Claimed writes the persisted claimed flag of a user for one week.
func Claimed(ctx context.Context, out io.Writer, eng *engine.Engine, user, weekStr string) error {
	if user == "" {
		return fmt.Errorf("user is required")
	}
	w, err := week.Parse(weekStr)
	if err != nil {
		return err
	}
	claimed, err := eng.IsClaimed(ctx, state.UserAddress(user), w)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"user": user, "week": w, "claimed": claimed})
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
