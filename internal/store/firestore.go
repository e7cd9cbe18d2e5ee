package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) GetDocument(ctx context.Context, collection, key string) (*Document, error) {
	snap, err := s.client.Collection(collection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, key, err)
	}
	return &Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *FirestoreStore) CreateDocument(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	_, err := s.client.Collection(collection).Doc(key).Create(ctx, fields)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create document %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *FirestoreStore) SetDocument(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	_, err := s.client.Collection(collection).Doc(key).Set(ctx, fields)
	if err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *FirestoreStore) UpdateDocument(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	_, err := s.client.Collection(collection).Doc(key).Update(ctx, toUpdates(fields))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update document %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *FirestoreStore) RunTransaction(ctx context.Context, collection, key string, fn TxnFunc) error {
	ref := s.client.Collection(collection).Doc(key)

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var fields map[string]interface{}
		exists := true

		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			exists = false
		} else {
			fields = snap.Data()
		}

		updates, err := fn(fields, exists)
		if err != nil {
			return err
		}
		if updates == nil {
			return nil
		}
		if !exists {
			return tx.Set(ref, updates)
		}
		return tx.Update(ref, toUpdates(updates))
	})
}

func (s *FirestoreStore) QueryDocuments(ctx context.Context, q Query) ([]Document, error) {
	iter := s.buildQuery(q).Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

// SubscribeCollection wraps a Firestore snapshot listener. The listener fires
// once with the initial result set and again on every remote change, matching
// the memory store's behavior.
func (s *FirestoreStore) SubscribeCollection(q Query, fn func(docs []Document)) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(context.Background())
	snaps := s.buildQuery(q).Snapshots(ctx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Firestore subscription on %s ended: %v", q.Collection, err)
				}
				return
			}

			var docs []Document
			iter := snap.Documents
			for {
				d, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					break
				}
				if err != nil {
					log.Printf("Firestore subscription read error: %v", err)
					return
				}
				docs = append(docs, Document{ID: d.Ref.ID, Fields: d.Data()})
			}
			fn(docs)
		}
	}()

	return func() { cancel() }, nil
}

func (s *FirestoreStore) buildQuery(q Query) firestore.Query {
	dir := firestore.Asc
	if q.Desc {
		dir = firestore.Desc
	}
	fq := s.client.Collection(q.Collection).OrderBy(q.OrderBy, dir)
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func toUpdates(fields map[string]interface{}) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	return updates
}
