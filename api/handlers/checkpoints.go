package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/malbeclabs/metabonding/engine/pkg/checkpoint"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

type CheckpointItem struct {
	Week                  week.Week `json:"week"`
	TotalDelegationSupply string    `json:"total_delegation_supply"`
	TotalLKMEXStaked      string    `json:"total_lkmex_staked"`
}

type CheckpointsResponse struct {
	CurrentWeek week.Week `json:"current_week"`
	PaginatedResponse[CheckpointItem]
}

func newCheckpointItem(w week.Week, cp state.Checkpoint) CheckpointItem {
	return CheckpointItem{
		Week:                  w,
		TotalDelegationSupply: cp.TotalDelegationSupply.String(),
		TotalLKMEXStaked:      cp.TotalLKMEXStaked.String(),
	}
}

// GetCheckpoints pages through the ledger from week 1.
func (h *Handlers) GetCheckpoints(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	count, err := h.engine.CheckpointCount(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}

	resp := CheckpointsResponse{
		CurrentWeek: h.engine.CurrentWeek(),
		PaginatedResponse: newPaginatedResponse[CheckpointItem](page, int(count)),
	}
	from, to := page.bounds(int(count))
	for i := from; i < to; i++ {
		wk := week.Week(i + 1)
		cp, err := h.engine.Checkpoint(r.Context(), wk)
		if err != nil {
			h.writeError(w, r, http.StatusInternalServerError, "internal_error", err)
			return
		}
		resp.Items = append(resp.Items, newCheckpointItem(wk, cp))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	wk, err := week.Parse(chi.URLParam(r, "week"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_week", err)
		return
	}

	cp, err := h.engine.Checkpoint(r.Context(), wk)
	if errors.Is(err, checkpoint.ErrOutOfRange) {
		h.writeError(w, r, http.StatusNotFound, "week_not_checkpointed", err)
		return
	}
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCheckpointItem(wk, cp))
}
