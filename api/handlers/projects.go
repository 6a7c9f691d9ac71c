package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/malbeclabs/metabonding/engine/pkg/engine"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

type ProjectItem struct {
	ID                     string    `json:"id"`
	RewardToken            string    `json:"reward_token"`
	DelegationRewardSupply string    `json:"delegation_reward_supply"`
	LKMEXRewardSupply      string    `json:"lkmex_reward_supply"`
	StartWeek              week.Week `json:"start_week"`
	EndWeek                week.Week `json:"end_week"`
	DurationWeeks          uint64    `json:"duration_weeks"`
	Deposited              bool      `json:"deposited"`
	WeeklyDelegationPool   string    `json:"weekly_delegation_pool"`
	WeeklyLKMEXPool        string    `json:"weekly_lkmex_pool"`
}

func newProjectItem(s engine.ProjectStatus) ProjectItem {
	p := s.Project
	return ProjectItem{
		ID:                     string(p.ID),
		RewardToken:            p.RewardToken,
		DelegationRewardSupply: p.DelegationRewardSupply.String(),
		LKMEXRewardSupply:      p.LKMEXRewardSupply.String(),
		StartWeek:              p.StartWeek,
		EndWeek:                p.EndWeek,
		DurationWeeks:          p.DurationWeeks(),
		Deposited:              s.Deposited,
		WeeklyDelegationPool:   s.WeeklyDelegationPool.String(),
		WeeklyLKMEXPool:        s.WeeklyLKMEXPool.String(),
	}
}

// GetProjects lists registered projects in registry order.
func (h *Handlers) GetProjects(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	all, err := h.engine.Projects(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}

	resp := newPaginatedResponse[ProjectItem](page, len(all))
	from, to := page.bounds(len(all))
	for _, s := range all[from:to] {
		resp.Items = append(resp.Items, newProjectItem(s))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id := project.ID(chi.URLParam(r, "id"))

	s, ok, err := h.engine.Project(r.Context(), id)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "unknown_project", errors.New("unknown project "+string(id)))
		return
	}
	h.writeJSON(w, http.StatusOK, newProjectItem(s))
}
