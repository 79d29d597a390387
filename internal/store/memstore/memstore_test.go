package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/store/docstore"
)

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	first, err := s.Create(ctx, "todos", docstore.Fields{"text": "one", "createdAt": t0})
	require.NoError(t, err)
	second, err := s.Create(ctx, "todos", docstore.Fields{"text": "two", "createdAt": t0.Add(time.Second)})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	docs, err := s.ListOrderedBy(ctx, "todos", "createdAt", docstore.Desc)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second, docs[0].ID)

	require.NoError(t, s.Update(ctx, "todos", first, docstore.Fields{"completed": true}))
	got, ok := s.Get("todos", first)
	require.True(t, ok)
	assert.Equal(t, "one", got["text"])
	assert.Equal(t, true, got["completed"])

	require.NoError(t, s.Delete(ctx, "todos", first))
	require.NoError(t, s.Delete(ctx, "todos", first), "deleting twice is not an error")
	assert.Equal(t, 1, s.Len("todos"))
	assert.Equal(t, 2, s.Calls("delete"))
}

func TestUpdateMissing(t *testing.T) {
	s := New()
	err := s.Update(context.Background(), "todos", "nope", docstore.Fields{"text": "x"})
	require.Error(t, err)
	assert.True(t, docstore.IsNotFound(err))
}

func TestListEmptyCollection(t *testing.T) {
	docs, err := New().ListOrderedBy(context.Background(), "todos", "createdAt", docstore.Desc)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFaultHook(t *testing.T) {
	s := New()
	boom := errors.New("unavailable")
	s.SetFault(func(op string) error {
		if op == "create" {
			return boom
		}
		return nil
	})
	_, err := s.Create(context.Background(), "todos", docstore.Fields{})
	require.ErrorIs(t, err, boom)

	var de *docstore.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "create", de.Op)
	assert.Equal(t, 0, s.Len("todos"))
}

func TestStoredFieldsAreCopied(t *testing.T) {
	s := New()
	in := docstore.Fields{"text": "a"}
	id, err := s.Create(context.Background(), "todos", in)
	require.NoError(t, err)
	in["text"] = "mutated"

	got, _ := s.Get("todos", id)
	assert.Equal(t, "a", got["text"])
}
