// Package docstore defines the minimal document-collection contract the app
// talks to. Backends live in sibling packages; every call is a round trip.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Fields is the schema-flexible body of a document.
// Values are string, bool, int64, float64, time.Time or nil.
type Fields map[string]any

// Document is one record of a collection.
type Document struct {
	ID     string
	Fields Fields
}

// Direction orders ListOrderedBy results.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Client is CRUD over named collections of documents.
type Client interface {
	// Create stores fields as a new document and returns its store-assigned id.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// ListOrderedBy returns every document carrying field, ordered by it.
	ListOrderedBy(ctx context.Context, collection, field string, dir Direction) ([]Document, error)
	// Update merges fields into an existing document. Missing documents fail with ErrNotFound.
	Update(ctx context.Context, collection, id string, fields Fields) error
	// Delete removes a document. Deleting an absent document succeeds.
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// ErrNotFound reports an update against a document that does not exist.
var ErrNotFound = errors.New("document not found")

// Error is the failure type every backend returns.
type Error struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("docstore %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("docstore %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds an *Error, returning nil for a nil err.
func Wrap(op, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Op: op, Collection: collection, ID: id, Err: err}
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge copies every entry of patch into f.
func (f Fields) Merge(patch Fields) {
	for k, v := range patch {
		f[k] = v
	}
}
