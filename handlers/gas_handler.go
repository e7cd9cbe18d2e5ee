package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"tokenTapAPI/internal/types/gas"
	"tokenTapAPI/middleware"
	"tokenTapAPI/services"
)

type GasHandler struct {
	gasService *services.GasService
}

func NewGasHandler(gasService *services.GasService) *GasHandler {
	return &GasHandler{gasService: gasService}
}

// Estimate returns the AI gas advisory. Failures here are transient
// notifications for the client; they never touch claim eligibility.
func (h *GasHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if _, ok := middleware.GetUID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if h.gasService == nil {
		respondWithError(w, http.StatusNotImplemented, "Gas estimation not configured")
		return
	}

	var req gas.EstimationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	est, err := h.gasService.Estimate(ctx, &req)
	if err != nil {
		if errors.Is(err, gas.ErrInvalidRequest) {
			middleware.RecordGasEstimation("invalid_input")
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		middleware.RecordGasEstimation("error")
		log.Printf("Gas estimation failed: %v", err)
		respondWithError(w, http.StatusBadGateway, "Could not fetch gas estimation")
		return
	}

	middleware.RecordGasEstimation("success")
	respondWithJSON(w, http.StatusOK, est)
}
