package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/metabonding/engine/pkg/deposit"
	"github.com/malbeclabs/metabonding/engine/pkg/engine"
	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/state"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
	metatesting "github.com/malbeclabs/metabonding/utils/pkg/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	registry, err := project.NewMemoryRegistry(
		project.Project{
			ID:                     "ride",
			RewardToken:            "RIDE-7d18e9",
			DelegationRewardSupply: big.NewInt(1000),
			LKMEXRewardSupply:      big.NewInt(0),
			StartWeek:              1,
			EndWeek:                4,
		},
		project.Project{
			ID:                     "later",
			RewardToken:            "LATE-000001",
			DelegationRewardSupply: big.NewInt(10),
			LKMEXRewardSupply:      big.NewInt(10),
			StartWeek:              5,
			EndWeek:                6,
		},
	)
	require.NoError(t, err)

	eng, err := engine.New(engine.Config{
		Logger:   metatesting.NewLogger(),
		Store:    state.NewMemoryStore(),
		Registry: registry,
		Clock:    week.Fixed(2),
	})
	require.NoError(t, err)

	_, err = eng.AddCheckpoint(t.Context(), 1, big.NewInt(1000), big.NewInt(0))
	require.NoError(t, err)
	_, err = eng.AddCheckpoint(t.Context(), 2, big.NewInt(2000), big.NewInt(0))
	require.NoError(t, err)
	require.NoError(t, eng.DepositRewards(t.Context(), "ride", deposit.Payment{Token: "RIDE-7d18e9", Amount: big.NewInt(1000)}))

	r := chi.NewRouter()
	r.Route("/api", New(metatesting.NewLogger(), eng).Routes)
	return r
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec.Code
}

func TestMetabonding_API_Rewards(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	t.Run("returns amounts as strings", func(t *testing.T) {
		t.Parallel()
		var resp RewardsResponse
		require.Equal(t, http.StatusOK, get(t, h, "/api/rewards/1?delegation=100", &resp))
		require.EqualValues(t, 1, resp.Week)
		require.Equal(t, []RewardItem{{ProjectID: "ride", Token: "RIDE-7d18e9", Amount: "25"}}, resp.Rewards)
	})

	t.Run("zero stake yields an empty list", func(t *testing.T) {
		t.Parallel()
		var resp RewardsResponse
		require.Equal(t, http.StatusOK, get(t, h, "/api/rewards/2", &resp))
		require.NotNil(t, resp.Rewards)
		require.Empty(t, resp.Rewards)
	})

	t.Run("unknown week is not found", func(t *testing.T) {
		t.Parallel()
		var resp ErrorResponse
		require.Equal(t, http.StatusNotFound, get(t, h, "/api/rewards/3?delegation=1", &resp))
		require.Equal(t, "week_not_checkpointed", resp.Error)

		require.Equal(t, http.StatusNotFound, get(t, h, "/api/rewards/0?delegation=1", &resp))
		require.Equal(t, "week_not_checkpointed", resp.Error)
	})

	t.Run("bad input is rejected", func(t *testing.T) {
		t.Parallel()
		var resp ErrorResponse
		require.Equal(t, http.StatusBadRequest, get(t, h, "/api/rewards/x", &resp))
		require.Equal(t, "invalid_week", resp.Error)
		require.Equal(t, http.StatusBadRequest, get(t, h, "/api/rewards/1?delegation=-5", &resp))
		require.Equal(t, "invalid_amount", resp.Error)
		require.Equal(t, http.StatusBadRequest, get(t, h, "/api/rewards/1?lkmex=abc", &resp))
		require.Equal(t, "invalid_amount", resp.Error)
	})
}

func TestMetabonding_API_Checkpoints(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	var list CheckpointsResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/checkpoints", &list))
	require.EqualValues(t, 2, list.CurrentWeek)
	require.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 2)
	require.Equal(t, "2000", list.Items[1].TotalDelegationSupply)

	require.Equal(t, http.StatusOK, get(t, h, "/api/checkpoints?offset=1&limit=5", &list))
	require.Len(t, list.Items, 1)
	require.EqualValues(t, 2, list.Items[0].Week)

	require.Equal(t, http.StatusOK, get(t, h, "/api/checkpoints?offset=10", &list))
	require.Empty(t, list.Items)

	var one CheckpointItem
	require.Equal(t, http.StatusOK, get(t, h, "/api/checkpoints/1", &one))
	require.Equal(t, CheckpointItem{Week: 1, TotalDelegationSupply: "1000", TotalLKMEXStaked: "0"}, one)

	var errResp ErrorResponse
	require.Equal(t, http.StatusNotFound, get(t, h, "/api/checkpoints/9", &errResp))
	require.Equal(t, http.StatusNotFound, get(t, h, "/api/checkpoints/0", &errResp))
	require.Equal(t, http.StatusBadRequest, get(t, h, "/api/checkpoints/x", &errResp))
}

func TestMetabonding_API_Projects(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	var list PaginatedResponse[ProjectItem]
	require.Equal(t, http.StatusOK, get(t, h, "/api/projects", &list))
	require.Equal(t, 2, list.Total)
	require.Equal(t, "ride", list.Items[0].ID)
	require.True(t, list.Items[0].Deposited)
	require.Equal(t, "250", list.Items[0].WeeklyDelegationPool)
	require.EqualValues(t, 4, list.Items[0].DurationWeeks)
	require.False(t, list.Items[1].Deposited)

	require.Equal(t, http.StatusOK, get(t, h, "/api/projects?limit=1&offset=1", &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, "later", list.Items[0].ID)

	var one ProjectItem
	require.Equal(t, http.StatusOK, get(t, h, "/api/projects/later", &one))
	require.Equal(t, "5", one.WeeklyLKMEXPool)

	var errResp ErrorResponse
	require.Equal(t, http.StatusNotFound, get(t, h, "/api/projects/missing", &errResp))
	require.Equal(t, "unknown_project", errResp.Error)
}

type brokenEngine struct{ Engine }

func (brokenEngine) CheckpointCount(context.Context) (week.Week, error) {
	return 0, errors.New("connection refused")
}

func TestMetabonding_API_InternalErrorsAreNotLeaked(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Route("/api", New(metatesting.NewLogger(), brokenEngine{}).Routes)

	var resp ErrorResponse
	require.Equal(t, http.StatusInternalServerError, get(t, r, "/api/checkpoints", &resp))
	require.Equal(t, "internal_error", resp.Error)
	require.Equal(t, "Internal Server Error", resp.Message)
}
