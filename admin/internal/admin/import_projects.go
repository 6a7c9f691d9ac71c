package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

// Importer registers projects. Existing ids must be rejected.
type Importer interface {
	Import(ctx context.Context, projects ...project.Project) error
}

// projectRecord is one entry of a projects file. Supplies are decimal strings.
type projectRecord struct {
	ID                     string    `json:"id"`
	RewardToken            string    `json:"reward_token"`
	DelegationRewardSupply string    `json:"delegation_reward_supply"`
	LKMEXRewardSupply      string    `json:"lkmex_reward_supply"`
	StartWeek              week.Week `json:"start_week"`
	EndWeek                week.Week `json:"end_week"`
}

// DecodeProjects reads a JSON array of projects, validating each entry.
func DecodeProjects(r io.Reader) ([]project.Project, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var records []projectRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}

	seen := make(map[string]bool, len(records))
	out := make([]project.Project, 0, len(records))
	for i, rec := range records {
		if seen[rec.ID] {
			return nil, fmt.Errorf("project %d: duplicate id %q", i, rec.ID)
		}
		seen[rec.ID] = true

		deleg, err := amount.ParseOrZero(rec.DelegationRewardSupply)
		if err != nil {
			return nil, fmt.Errorf("project %q delegation reward supply: %w", rec.ID, err)
		}
		lkmex, err := amount.ParseOrZero(rec.LKMEXRewardSupply)
		if err != nil {
			return nil, fmt.Errorf("project %q lkmex reward supply: %w", rec.ID, err)
		}
		p := project.Project{
			ID:                     project.ID(rec.ID),
			RewardToken:            rec.RewardToken,
			DelegationRewardSupply: deleg,
			LKMEXRewardSupply:      lkmex,
			StartWeek:              rec.StartWeek,
			EndWeek:                rec.EndWeek,
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ImportProjects loads a projects file and registers every entry.
func ImportProjects(ctx context.Context, log *slog.Logger, importer Importer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open projects file: %w", err)
	}
	defer f.Close()

	projects, err := DecodeProjects(f)
	if err != nil {
		return err
	}
	if err := importer.Import(ctx, projects...); err != nil {
		return err
	}
	log.Info("admin: projects imported", "count", len(projects), "file", path)
	return nil
}
