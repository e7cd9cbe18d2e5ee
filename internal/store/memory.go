package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore backs tests and dev mode. Same contract as the Firestore store,
// including the immediate first push to new subscribers.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}
	subs        map[int]*memorySub
	nextSubID   int
}

type memorySub struct {
	query Query
	fn    func(docs []Document)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
		subs:        make(map[int]*memorySub),
	}
}

func (s *MemoryStore) GetDocument(_ context.Context, collection, key string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collections[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: key, Fields: cloneFields(fields)}, nil
}

func (s *MemoryStore) CreateDocument(_ context.Context, collection, key string, fields map[string]interface{}) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][key]; ok {
		s.mu.Unlock()
		return ErrAlreadyExists
	}
	s.put(collection, key, cloneFields(fields))
	s.notifyAndUnlock(collection)
	return nil
}

func (s *MemoryStore) SetDocument(_ context.Context, collection, key string, fields map[string]interface{}) error {
	s.mu.Lock()
	s.put(collection, key, cloneFields(fields))
	s.notifyAndUnlock(collection)
	return nil
}

func (s *MemoryStore) UpdateDocument(_ context.Context, collection, key string, fields map[string]interface{}) error {
	s.mu.Lock()
	existing, ok := s.collections[collection][key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		existing[k] = v
	}
	s.notifyAndUnlock(collection)
	return nil
}

func (s *MemoryStore) RunTransaction(_ context.Context, collection, key string, fn TxnFunc) error {
	s.mu.Lock()
	existing, exists := s.collections[collection][key]

	var snapshot map[string]interface{}
	if exists {
		snapshot = cloneFields(existing)
	}

	updates, err := fn(snapshot, exists)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if updates == nil {
		s.mu.Unlock()
		return nil
	}

	if !exists {
		s.put(collection, key, cloneFields(updates))
	} else {
		for k, v := range updates {
			existing[k] = v
		}
	}
	s.notifyAndUnlock(collection)
	return nil
}

func (s *MemoryStore) QueryDocuments(_ context.Context, q Query) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runQueryLocked(q), nil
}

func (s *MemoryStore) SubscribeCollection(q Query, fn func(docs []Document)) (Unsubscribe, error) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = &memorySub{query: q, fn: fn}
	initial := s.runQueryLocked(q)
	s.mu.Unlock()

	fn(initial)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// notifyAndUnlock snapshots subscriber payloads under the lock, then releases it
// before invoking callbacks so a callback may re-enter the store.
func (s *MemoryStore) notifyAndUnlock(collection string) {
	type pending struct {
		fn   func(docs []Document)
		docs []Document
	}
	var queue []pending
	for _, sub := range s.subs {
		if sub.query.Collection != collection {
			continue
		}
		queue = append(queue, pending{fn: sub.fn, docs: s.runQueryLocked(sub.query)})
	}
	s.mu.Unlock()

	for _, p := range queue {
		p.fn(p.docs)
	}
}

func (s *MemoryStore) put(collection, key string, fields map[string]interface{}) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
	s.collections[collection][key] = fields
}

// runQueryLocked orders by the query field with document ID as the tie-break,
// which keeps equal balances in a deterministic order across backends.
func (s *MemoryStore) runQueryLocked(q Query) []Document {
	docs := make([]Document, 0, len(s.collections[q.Collection]))
	for id, fields := range s.collections[q.Collection] {
		docs = append(docs, Document{ID: id, Fields: cloneFields(fields)})
	}

	sort.Slice(docs, func(i, j int) bool {
		a := numericField(docs[i].Fields[q.OrderBy])
		b := numericField(docs[j].Fields[q.OrderBy])
		if a != b {
			if q.Desc {
				return a > b
			}
			return a < b
		}
		return docs[i].ID < docs[j].ID
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

func numericField(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func cloneFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
