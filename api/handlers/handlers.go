// Package handlers serves the read-only rewards HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"github.com/malbeclabs/metabonding/engine/pkg/engine"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/reward"
	"github.com/malbeclabs/metabonding/engine/pkg/rewards"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

// Engine is the read side of the reward engine.
type Engine interface {
	RewardsForWeek(ctx context.Context, w week.Week, stake reward.Stake) ([]rewards.Reward, error)
	Checkpoint(ctx context.Context, w week.Week) (state.Checkpoint, error)
	CheckpointCount(ctx context.Context) (week.Week, error)
	CurrentWeek() week.Week
	Projects(ctx context.Context) ([]engine.ProjectStatus, error)
	Project(ctx context.Context, id project.ID) (engine.ProjectStatus, bool, error)
}

type Handlers struct {
	log    *slog.Logger
	engine Engine
}

func New(log *slog.Logger, engine Engine) *Handlers {
	return &Handlers{log: log, engine: engine}
}

// Routes registers the API endpoints on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/rewards/{week}", h.GetRewards)
	r.Get("/checkpoints", h.GetCheckpoints)
	r.Get("/checkpoints/{week}", h.GetCheckpoint)
	r.Get("/projects", h.GetProjects)
	r.Get("/projects/{id}", h.GetProject)
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("api: failed to write response", "error", err)
	}
}

// writeError responds with a JSON error. Server errors are logged and reported
// to Sentry when a hub is attached to the request.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.log.Error("api: request failed", "path", r.URL.Path, "status", status, "error", err)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
		msg = http.StatusText(status)
	}
	h.writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
