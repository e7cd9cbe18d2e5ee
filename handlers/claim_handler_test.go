package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenTapAPI/internal/claim"
	"tokenTapAPI/internal/store"
	"tokenTapAPI/middleware"
	"tokenTapAPI/services"
)

func setupClaimHandler(t *testing.T) (*ClaimHandler, *services.ClaimService) {
	t.Helper()

	st := store.NewMemoryStore()
	claimService := services.NewClaimService(st, nil, services.ClaimConfig{Amount: 50, Cooldown: 24 * time.Hour})

	profileService := services.NewProfileService(st)
	_, err := profileService.EnsureProfile(context.Background(), "user_test", "Test User", "")
	require.NoError(t, err)

	return NewClaimHandler(claimService), claimService
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), middleware.UIDKey, "user_test")
	return req.WithContext(ctx)
}

func TestClaim_Success(t *testing.T) {
	handler, _ := setupClaimHandler(t)

	rr := httptest.NewRecorder()
	handler.Claim(rr, authedRequest(http.MethodPost, "/api/v1/claim"))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Claimed bool          `json:"claimed"`
		Result  *claim.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.True(t, resp.Claimed)
	require.NotNil(t, resp.Result)
	assert.Equal(t, int64(50), resp.Result.Amount)
	assert.Equal(t, int64(50), resp.Result.NewBalance)
	assert.Len(t, resp.Result.Receipt, 66)
}

func TestClaim_CooldownIsANoOpNotAnError(t *testing.T) {
	handler, _ := setupClaimHandler(t)

	rr := httptest.NewRecorder()
	handler.Claim(rr, authedRequest(http.MethodPost, "/api/v1/claim"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.Claim(rr, authedRequest(http.MethodPost, "/api/v1/claim"))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Claimed         bool  `json:"claimed"`
		CooldownEndTime int64 `json:"cooldownEndTime"`
		RemainingMillis int64 `json:"remainingMs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.False(t, resp.Claimed)
	assert.Greater(t, resp.CooldownEndTime, int64(0))
	assert.Greater(t, resp.RemainingMillis, int64(0))
}

func TestClaim_Unauthenticated(t *testing.T) {
	handler, _ := setupClaimHandler(t)

	rr := httptest.NewRecorder()
	handler.Claim(rr, httptest.NewRequest(http.MethodPost, "/api/v1/claim", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetStatus_TracksClaim(t *testing.T) {
	handler, _ := setupClaimHandler(t)

	rr := httptest.NewRecorder()
	handler.GetStatus(rr, authedRequest(http.MethodGet, "/api/v1/claim/status"))
	require.Equal(t, http.StatusOK, rr.Code)

	var status claim.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.True(t, status.CanClaim)
	assert.Equal(t, int64(0), status.TotalTokens)

	rr = httptest.NewRecorder()
	handler.Claim(rr, authedRequest(http.MethodPost, "/api/v1/claim"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.GetStatus(rr, authedRequest(http.MethodGet, "/api/v1/claim/status"))
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.False(t, status.CanClaim)
	assert.Equal(t, int64(50), status.TotalTokens)
	assert.Greater(t, status.Countdown.RemainingMillis, int64(0))
}
