// Package store is the document-store capability the claim machinery runs on.
// Production uses Firestore; tests and dev mode use the in-memory store.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("store: document not found")
	ErrAlreadyExists = errors.New("store: document already exists")
)

type Document struct {
	ID     string
	Fields map[string]interface{}
}

// Query describes an ordered, bounded collection read.
type Query struct {
	Collection string
	OrderBy    string
	Desc       bool
	Limit      int
}

// TxnFunc sees the current fields of one document and returns the partial
// update to apply, all inside one transaction. Returning nil fields commits
// nothing; returning an error aborts and surfaces that error unchanged.
type TxnFunc func(fields map[string]interface{}, exists bool) (map[string]interface{}, error)

// Unsubscribe releases a collection subscription. Safe to call once.
type Unsubscribe func()

type Store interface {
	GetDocument(ctx context.Context, collection, key string) (*Document, error)
	// CreateDocument fails with ErrAlreadyExists instead of overwriting.
	CreateDocument(ctx context.Context, collection, key string, fields map[string]interface{}) error
	SetDocument(ctx context.Context, collection, key string, fields map[string]interface{}) error
	// UpdateDocument merges fields atomically into an existing document.
	UpdateDocument(ctx context.Context, collection, key string, fields map[string]interface{}) error
	// RunTransaction runs fn against one document with read-check-write
	// atomicity against the backing store.
	RunTransaction(ctx context.Context, collection, key string, fn TxnFunc) error
	QueryDocuments(ctx context.Context, q Query) ([]Document, error)
	// SubscribeCollection pushes the full query result to fn once immediately
	// and again after every change, until unsubscribed.
	SubscribeCollection(q Query, fn func(docs []Document)) (Unsubscribe, error)
}
