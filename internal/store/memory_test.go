package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetDocument(ctx, "users", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetDocument(ctx, "users", "u1", map[string]interface{}{"totalTokens": int64(5)}))

	doc, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.ID)
	assert.Equal(t, int64(5), doc.Fields["totalTokens"])
}

func TestMemoryStoreCreateIsNotAnOverwrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateDocument(ctx, "users", "u1", map[string]interface{}{"totalTokens": int64(100)}))

	err := s.CreateDocument(ctx, "users", "u1", map[string]interface{}{"totalTokens": int64(0)})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	doc, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), doc.Fields["totalTokens"], "existing document must be untouched")
}

func TestMemoryStoreUpdateMerges(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "u1", map[string]interface{}{
		"displayName": "alice",
		"totalTokens": int64(0),
	}))

	require.NoError(t, s.UpdateDocument(ctx, "users", "u1", map[string]interface{}{"totalTokens": int64(50)}))

	doc, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.Fields["displayName"])
	assert.Equal(t, int64(50), doc.Fields["totalTokens"])

	assert.ErrorIs(t, s.UpdateDocument(ctx, "users", "missing", map[string]interface{}{"x": 1}), ErrNotFound)
}

func TestMemoryStoreTransactionAbort(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "u1", map[string]interface{}{"totalTokens": int64(10)}))

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, "users", "u1", func(fields map[string]interface{}, exists bool) (map[string]interface{}, error) {
		assert.True(t, exists)
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	doc, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), doc.Fields["totalTokens"], "aborted transaction must not write")
}

func TestMemoryStoreQueryOrderLimitAndTies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "a", map[string]interface{}{"totalTokens": int64(50)}))
	require.NoError(t, s.SetDocument(ctx, "users", "b", map[string]interface{}{"totalTokens": int64(200)}))
	require.NoError(t, s.SetDocument(ctx, "users", "c", map[string]interface{}{"totalTokens": int64(10)}))
	require.NoError(t, s.SetDocument(ctx, "users", "d", map[string]interface{}{"totalTokens": int64(50)}))

	docs, err := s.QueryDocuments(ctx, Query{Collection: "users", OrderBy: "totalTokens", Desc: true, Limit: 10})
	require.NoError(t, err)

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	// Equal balances tie-break by document ID.
	assert.Equal(t, []string{"b", "a", "d", "c"}, ids)

	docs, err = s.QueryDocuments(ctx, Query{Collection: "users", OrderBy: "totalTokens", Desc: true, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestMemoryStoreSubscriptionPushes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "a", map[string]interface{}{"totalTokens": int64(1)}))

	var pushes [][]Document
	unsub, err := s.SubscribeCollection(Query{Collection: "users", OrderBy: "totalTokens", Desc: true, Limit: 10}, func(docs []Document) {
		pushes = append(pushes, docs)
	})
	require.NoError(t, err)

	// Immediate initial push.
	require.Len(t, pushes, 1)
	assert.Len(t, pushes[0], 1)

	require.NoError(t, s.SetDocument(ctx, "users", "b", map[string]interface{}{"totalTokens": int64(2)}))
	require.Len(t, pushes, 2)
	assert.Equal(t, "b", pushes[1][0].ID)

	// Writes to other collections stay silent.
	require.NoError(t, s.SetDocument(ctx, "events", "e1", map[string]interface{}{"n": int64(1)}))
	assert.Len(t, pushes, 2)

	unsub()
	require.NoError(t, s.SetDocument(ctx, "users", "c", map[string]interface{}{"totalTokens": int64(3)}))
	assert.Len(t, pushes, 2, "no pushes after unsubscribe")
}

func TestMemoryStoreSubscriberMayReenter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	reads := 0
	_, err := s.SubscribeCollection(Query{Collection: "users", OrderBy: "totalTokens", Desc: true}, func(docs []Document) {
		// Callbacks run outside the store lock.
		if _, err := s.QueryDocuments(ctx, Query{Collection: "users", OrderBy: "totalTokens"}); err == nil {
			reads++
		}
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SetDocument(ctx, "users", fmt.Sprintf("u%d", i), map[string]interface{}{"totalTokens": int64(i)}))
	}
	assert.Equal(t, 4, reads)
}
