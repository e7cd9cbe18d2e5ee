package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenTapAPI/internal/store"
	"tokenTapAPI/internal/types/user"
	"tokenTapAPI/middleware"
	"tokenTapAPI/services"
)

func identifiedRequest(target, uid, name, picture string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := context.WithValue(req.Context(), middleware.UIDKey, uid)
	ctx = context.WithValue(ctx, middleware.NameKey, name)
	ctx = context.WithValue(ctx, middleware.PictureKey, picture)
	return req.WithContext(ctx)
}

func TestGetProfile_CreatesZeroedProfile(t *testing.T) {
	handler := NewUserHandler(services.NewProfileService(store.NewMemoryStore()), nil)

	rr := httptest.NewRecorder()
	handler.GetProfile(rr, identifiedRequest("/api/v1/user", "user_new", "Ada", "https://example.com/ada.png"))

	require.Equal(t, http.StatusOK, rr.Code)

	var profile user.UserProfile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))

	assert.Equal(t, "user_new", profile.ID)
	assert.Equal(t, "Ada", profile.DisplayName)
	assert.Equal(t, int64(0), profile.TotalTokens)
	assert.Equal(t, int64(0), profile.CooldownEndTime)
	assert.Nil(t, profile.LastClaimTime)
}

func TestGetProfile_SecondVisitKeepsExistingProfile(t *testing.T) {
	handler := NewUserHandler(services.NewProfileService(store.NewMemoryStore()), nil)

	rr := httptest.NewRecorder()
	handler.GetProfile(rr, identifiedRequest("/api/v1/user", "user_repeat", "Original", ""))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.GetProfile(rr, identifiedRequest("/api/v1/user", "user_repeat", "Renamed", ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var profile user.UserProfile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, "Original", profile.DisplayName)
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	handler := NewUserHandler(services.NewProfileService(store.NewMemoryStore()), nil)

	rr := httptest.NewRecorder()
	handler.GetProfile(rr, httptest.NewRequest(http.MethodGet, "/api/v1/user", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetClaimHistory_NotConfigured(t *testing.T) {
	handler := NewUserHandler(services.NewProfileService(store.NewMemoryStore()), nil)

	rr := httptest.NewRecorder()
	handler.GetClaimHistory(rr, identifiedRequest("/api/v1/user/claims", "user_test", "", ""))

	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}
