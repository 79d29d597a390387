// Package memstore is an in-process docstore.Client. It backs the "memory"
// driver and stands in for the remote service in tests.
package memstore

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/Makepad-fr/tadasync/internal/store/docstore"
)

// Store keeps collections in maps. Safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]docstore.Fields
	calls       map[string]int
	fault       func(op string) error
	newID       func() string
}

var _ docstore.Client = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: map[string]map[string]docstore.Fields{},
		calls:       map[string]int{},
		newID:       func() string { return ulid.Make().String() },
	}
}

// SetFault installs a hook consulted before every call; a non-nil result fails the call.
func (s *Store) SetFault(fn func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

// SetIDSource replaces the ULID generator.
func (s *Store) SetIDSource(fn func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newID = fn
}

// Calls reports how many times op ("create", "list", "update", "delete") was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Len returns the number of documents in collection.
func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

// Get returns a copy of a stored document.
func (s *Store) Get(collection, id string) (docstore.Fields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.collections[collection][id]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

// begin records the call and runs the fault hook. Caller holds mu.
func (s *Store) begin(ctx context.Context, op string) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.fault != nil {
		return s.fault(op)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "create"); err != nil {
		return "", docstore.Wrap("create", collection, "", err)
	}
	col, ok := s.collections[collection]
	if !ok {
		col = map[string]docstore.Fields{}
		s.collections[collection] = col
	}
	id := s.newID()
	col[id] = fields.Clone()
	return id, nil
}

func (s *Store) ListOrderedBy(ctx context.Context, collection, field string, dir docstore.Direction) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "list"); err != nil {
		return nil, docstore.Wrap("list", collection, "", err)
	}
	col := s.collections[collection]
	docs := make([]docstore.Document, 0, len(col))
	for id, f := range col {
		docs = append(docs, docstore.Document{ID: id, Fields: f.Clone()})
	}
	return docstore.SortDocuments(docs, field, dir), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "update"); err != nil {
		return docstore.Wrap("update", collection, id, err)
	}
	cur, ok := s.collections[collection][id]
	if !ok {
		return docstore.Wrap("update", collection, id, docstore.ErrNotFound)
	}
	cur.Merge(fields)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "delete"); err != nil {
		return docstore.Wrap("delete", collection, id, err)
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Close() error { return nil }
