package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tokenTapAPI/middleware"
	"tokenTapAPI/services"
)

type UserHandler struct {
	profileService *services.ProfileService
	historyService *services.HistoryService
}

func NewUserHandler(profileService *services.ProfileService, historyService *services.HistoryService) *UserHandler {
	return &UserHandler{
		profileService: profileService,
		historyService: historyService,
	}
}

// GetProfile returns the caller's profile, creating the zeroed document on
// first authenticated contact. Repeated calls never reset an existing
// profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	uid, ok := middleware.GetUID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	profile, err := h.profileService.EnsureProfile(ctx, uid, middleware.GetDisplayName(ctx), middleware.GetPhotoURL(ctx))
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Profile unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) GetClaimHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	uid, ok := middleware.GetUID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if h.historyService == nil {
		respondWithError(w, http.StatusNotImplemented, "Claim history not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.historyService.GetUserClaims(ctx, uid, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, events)
}

func (h *UserHandler) GetClaimCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	uid, ok := middleware.GetUID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if h.historyService == nil {
		respondWithError(w, http.StatusNotImplemented, "Claim history not configured")
		return
	}

	count, err := h.historyService.GetClaimCount(ctx, uid)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
