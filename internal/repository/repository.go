// Package repository maps todo operations onto a document store. It is the
// only place that knows the stored document shape.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store/docstore"
)

// stored field names
const (
	fieldText      = "text"
	fieldCompleted = "completed"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// user-facing failure messages, one per operation
const (
	MsgCreate = "Failed to create todo"
	MsgList   = "Failed to fetch todos"
	MsgUpdate = "Failed to update todo"
	MsgDelete = "Failed to delete todo"
)

// Error is a store failure translated for the user. Err keeps the cause for logs.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Repository persists todos in one collection.
type Repository struct {
	store      docstore.Client
	collection string
	now        func() time.Time
}

// Option tunes a Repository.
type Option func(*Repository)

// WithCollection overrides the default "todos" collection.
func WithCollection(name string) Option {
	return func(r *Repository) {
		if name != "" {
			r.collection = name
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New returns a repository over store.
func New(store docstore.Client, opts ...Option) *Repository {
	r := &Repository{store: store, collection: "todos", now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Repository) fail(op, msg string, err error) error {
	glog.Errorf("[repository] %s: %v", op, err)
	return &Error{Op: op, Message: msg, Err: err}
}

// Create stores a new, not yet completed todo and returns it with its id.
func (r *Repository) Create(ctx context.Context, text string) (model.Todo, error) {
	text, err := model.NormalizeText(text)
	if err != nil {
		return model.Todo{}, err
	}
	now := r.now().UTC()
	id, err := r.store.Create(ctx, r.collection, docstore.Fields{
		fieldText:      text,
		fieldCompleted: false,
		fieldCreatedAt: now,
		fieldUpdatedAt: now,
	})
	if err != nil {
		return model.Todo{}, r.fail("create", MsgCreate, err)
	}
	return model.Todo{ID: id, Text: text, CreatedAt: now, UpdatedAt: now}, nil
}

// List returns every todo, newest first.
func (r *Repository) List(ctx context.Context) ([]model.Todo, error) {
	docs, err := r.store.ListOrderedBy(ctx, r.collection, fieldCreatedAt, docstore.Desc)
	if err != nil {
		return nil, r.fail("list", MsgList, err)
	}
	todos := make([]model.Todo, 0, len(docs))
	for _, d := range docs {
		t, err := toTodo(d)
		if err != nil {
			return nil, r.fail("list", MsgList, err)
		}
		todos = append(todos, t)
	}
	return todos, nil
}

// UpdateFields applies p and always refreshes updatedAt.
func (r *Repository) UpdateFields(ctx context.Context, id string, p model.Patch) error {
	fields := docstore.Fields{fieldUpdatedAt: r.now().UTC()}
	if p.Text != nil {
		text, err := model.NormalizeText(*p.Text)
		if err != nil {
			return err
		}
		fields[fieldText] = text
	}
	if p.Completed != nil {
		fields[fieldCompleted] = *p.Completed
	}
	if err := r.store.Update(ctx, r.collection, id, fields); err != nil {
		return r.fail("update", MsgUpdate, err)
	}
	return nil
}

// Delete removes the todo.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return r.fail("delete", MsgDelete, err)
	}
	return nil
}

// ToggleCompleted sets completed to the given value.
func (r *Repository) ToggleCompleted(ctx context.Context, id string, completed bool) error {
	return r.UpdateFields(ctx, id, model.Patch{Completed: &completed})
}

func toTodo(d docstore.Document) (model.Todo, error) {
	t := model.Todo{ID: d.ID}
	t.Text, _ = d.Fields[fieldText].(string)
	t.Completed, _ = d.Fields[fieldCompleted].(bool)
	var err error
	if t.CreatedAt, err = toTime(d.Fields[fieldCreatedAt]); err != nil {
		return t, fmt.Errorf("document %s: %s: %w", d.ID, fieldCreatedAt, err)
	}
	if t.UpdatedAt, err = toTime(d.Fields[fieldUpdatedAt]); err != nil {
		return t, fmt.Errorf("document %s: %s: %w", d.ID, fieldUpdatedAt, err)
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		t.UpdatedAt = t.CreatedAt
	}
	return t, nil
}

// toTime normalizes the timestamp shapes backends hand back.
func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case *time.Time:
		if x != nil {
			return x.UTC(), nil
		}
		return time.Time{}, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	case int64:
		return time.UnixMilli(x).UTC(), nil
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %T", v)
}
