package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
	"github.com/malbeclabs/metabonding/engine/pkg/reward"
	"github.com/malbeclabs/metabonding/engine/pkg/rewards"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

type RewardItem struct {
	ProjectID string `json:"project_id"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
}

type RewardsResponse struct {
	Week    week.Week    `json:"week"`
	Rewards []RewardItem `json:"rewards"`
}

// GetRewards returns the rewards of a stake in one week. Missing stake
// parameters count as zero.
func (h *Handlers) GetRewards(w http.ResponseWriter, r *http.Request) {
	wk, err := week.Parse(chi.URLParam(r, "week"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_week", err)
		return
	}

	q := r.URL.Query()
	delegation, err := amount.ParseOrZero(q.Get("delegation"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_amount", err)
		return
	}
	lkmex, err := amount.ParseOrZero(q.Get("lkmex"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_amount", err)
		return
	}

	out, err := h.engine.RewardsForWeek(r.Context(), wk, reward.Stake{Delegation: delegation, LKMEXStaked: lkmex})
	if errors.Is(err, rewards.ErrWeekNotCheckpointed) {
		h.writeError(w, r, http.StatusNotFound, "week_not_checkpointed", err)
		return
	}
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}

	resp := RewardsResponse{Week: wk, Rewards: make([]RewardItem, 0, len(out))}
	for _, rw := range out {
		resp.Rewards = append(resp.Rewards, RewardItem{
			ProjectID: string(rw.ProjectID),
			Token:     rw.Token,
			Amount:    rw.Amount.String(),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}
