package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tokenTapAPI/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	feed               *services.LeaderboardFeed
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, feed *services.LeaderboardFeed) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		feed:               feed,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lb, err := h.leaderboardService.Top(ctx)
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Leaderboard unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, lb)
}

// JoinLiveFeed upgrades the connection and streams leaderboard updates until
// the client disconnects.
func (h *LeaderboardHandler) JoinLiveFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Could not upgrade leaderboard feed connection: %v", err)
		return
	}

	client := services.NewFeedClient(h.feed, conn)
	h.feed.Register() <- client

	go client.WritePump()
	go client.ReadPump()
}
