package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tokenTapAPI/internal/claim"
	"tokenTapAPI/middleware"
	"tokenTapAPI/services"
)

type ClaimHandler struct {
	claimService *services.ClaimService
}

func NewClaimHandler(claimService *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

type claimResponse struct {
	Claimed bool          `json:"claimed"`
	Result  *claim.Result `json:"result,omitempty"`
	// Set when the claim was a cooldown no-op.
	CooldownEndTime int64 `json:"cooldownEndTime,omitempty"`
	RemainingMillis int64 `json:"remainingMs,omitempty"`
}

// Claim runs the fixed-amount claim. An attempt during cooldown is a 200
// no-op, not an error; real write failures are 502 and retryable.
func (h *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	uid, ok := middleware.GetUID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	result, err := h.claimService.Claim(ctx, uid)
	if err != nil {
		var cdErr *claim.CooldownError
		switch {
		case errors.As(err, &cdErr):
			middleware.RecordClaimOutcome(middleware.ClaimOutcomeCooldown)
			respondWithJSON(w, http.StatusOK, claimResponse{
				Claimed:         false,
				CooldownEndTime: cdErr.CooldownEndTime,
				RemainingMillis: cdErr.Remaining.Milliseconds(),
			})
		case errors.Is(err, claim.ErrClaimInFlight):
			middleware.RecordClaimOutcome(middleware.ClaimOutcomeInFlight)
			respondWithError(w, http.StatusConflict, "A claim is already in progress")
		default:
			middleware.RecordClaimOutcome(middleware.ClaimOutcomeError)
			log.Printf("Claim failed for %s: %v", uid, err)
			respondWithError(w, http.StatusBadGateway, "Claim failed, nothing was credited. Please retry.")
		}
		return
	}

	middleware.RecordClaimOutcome(middleware.ClaimOutcomeSuccess)
	respondWithJSON(w, http.StatusOK, claimResponse{Claimed: true, Result: result})
}

func (h *ClaimHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	uid, ok := middleware.GetUID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	status, err := h.claimService.Status(ctx, uid)
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Claim status unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// CooldownStream upgrades to a websocket and pushes one countdown per second
// until the cooldown hits zero, then closes. The ticker dies with the
// connection.
func (h *ClaimHandler) CooldownStream(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	statusCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	status, err := h.claimService.Status(statusCtx, uid)
	cancel()
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Claim status unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Could not upgrade cooldown stream: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()

	// A read loop only to detect the peer going away.
	go func() {
		defer cancelWatch()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for countdown := range claim.Watch(ctx, status.CooldownEndTime, h.claimService.Cooldown()) {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(countdown); err != nil {
			return
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "cooldown complete"))
}
