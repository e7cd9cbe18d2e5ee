package services

import (
	"context"
	"fmt"

	"tokenTapAPI/internal/store"
	"tokenTapAPI/internal/types/leaderboard"
	"tokenTapAPI/internal/types/user"
)

// LeaderboardService is a read-only projection of the profile collection,
// ordered by balance. It never writes.
type LeaderboardService struct {
	store store.Store
}

func NewLeaderboardService(st store.Store) *LeaderboardService {
	return &LeaderboardService{store: st}
}

func topQuery() store.Query {
	return store.Query{
		Collection: user.Collection,
		OrderBy:    user.FieldTotalTokens,
		Desc:       true,
		Limit:      leaderboard.TopN,
	}
}

// Top returns the current top-10 by totalTokens. Equal balances keep the
// store's natural order, which both backends resolve by document ID.
func (s *LeaderboardService) Top(ctx context.Context) (*leaderboard.Leaderboard, error) {
	docs, err := s.store.QueryDocuments(ctx, topQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	return projectLeaderboard(docs), nil
}

// Subscribe pushes the re-ranked projection on every change in the backing
// collection. The returned function releases the subscription.
func (s *LeaderboardService) Subscribe(fn func(lb *leaderboard.Leaderboard)) (store.Unsubscribe, error) {
	return s.store.SubscribeCollection(topQuery(), func(docs []store.Document) {
		fn(projectLeaderboard(docs))
	})
}

func projectLeaderboard(docs []store.Document) *leaderboard.Leaderboard {
	entries := make([]*leaderboard.LeaderboardEntry, 0, len(docs))
	for i, doc := range docs {
		p := user.ProfileFromFields(doc.ID, doc.Fields)
		entries = append(entries, &leaderboard.LeaderboardEntry{
			UserID:      p.ID,
			DisplayName: p.DisplayName,
			PhotoURL:    p.PhotoURL,
			TotalTokens: p.TotalTokens,
			Rank:        i + 1,
		})
	}
	return &leaderboard.Leaderboard{
		Entries:    entries,
		TotalUsers: len(entries),
	}
}
