package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenTapAPI/internal/store"
	"tokenTapAPI/internal/types/leaderboard"
	"tokenTapAPI/internal/types/user"
)

func seedProfile(t *testing.T, st store.Store, id string, tokens int64) {
	t.Helper()
	fields := user.NewProfileFields("user "+id, "")
	fields[user.FieldTotalTokens] = tokens
	require.NoError(t, st.SetDocument(context.Background(), user.Collection, id, fields))
}

func TestTopProjectsByBalanceDescending(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewLeaderboardService(st)

	seedProfile(t, st, "a", 50)
	seedProfile(t, st, "b", 200)
	seedProfile(t, st, "c", 10)

	lb, err := svc.Top(context.Background())
	require.NoError(t, err)

	require.Len(t, lb.Entries, 3)
	assert.Equal(t, "b", lb.Entries[0].UserID)
	assert.Equal(t, "a", lb.Entries[1].UserID)
	assert.Equal(t, "c", lb.Entries[2].UserID)

	assert.Equal(t, 1, lb.Entries[0].Rank)
	assert.Equal(t, 2, lb.Entries[1].Rank)
	assert.Equal(t, 3, lb.Entries[2].Rank)
	assert.Equal(t, int64(200), lb.Entries[0].TotalTokens)
	assert.Equal(t, 3, lb.TotalUsers)
}

func TestTopIsBoundedToTen(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewLeaderboardService(st)

	for i := 0; i < 15; i++ {
		seedProfile(t, st, fmt.Sprintf("u%02d", i), int64(i*10))
	}

	lb, err := svc.Top(context.Background())
	require.NoError(t, err)

	require.Len(t, lb.Entries, leaderboard.TopN)
	assert.Equal(t, "u14", lb.Entries[0].UserID)
}

func TestSubscribePushesReRankedProjection(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewLeaderboardService(st)

	seedProfile(t, st, "a", 50)
	seedProfile(t, st, "b", 200)

	var updates []*leaderboard.Leaderboard
	unsub, err := svc.Subscribe(func(lb *leaderboard.Leaderboard) {
		updates = append(updates, lb)
	})
	require.NoError(t, err)
	defer unsub()

	require.Len(t, updates, 1, "initial projection pushed immediately")
	assert.Equal(t, "b", updates[0].Entries[0].UserID)

	// A claim flips the ranking; the projection follows.
	seedProfile(t, st, "a", 500)
	require.Len(t, updates, 2)
	assert.Equal(t, "a", updates[1].Entries[0].UserID)
	assert.Equal(t, "b", updates[1].Entries[1].UserID)
}
