package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/store/docstore"
)

func TestNewRequiresProject(t *testing.T) {
	_, err := New(context.Background(), Config{APIKey: "key"})
	require.EqualError(t, err, "firestore: project id required")
}

// Runs against the Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func TestEmulatorCRUD(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	s, err := New(ctx, Config{ProjectID: "tada-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	collection := "todos_" + time.Now().Format("150405.000000")
	t0 := time.Now().UTC().Truncate(time.Millisecond)

	older, err := s.Create(ctx, collection, docstore.Fields{"text": "older", "completed": false, "createdAt": t0})
	require.NoError(t, err)
	newer, err := s.Create(ctx, collection, docstore.Fields{"text": "newer", "completed": false, "createdAt": t0.Add(time.Second)})
	require.NoError(t, err)

	docs, err := s.ListOrderedBy(ctx, collection, "createdAt", docstore.Desc)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, newer, docs[0].ID)
	assert.IsType(t, time.Time{}, docs[0].Fields["createdAt"])

	require.NoError(t, s.Update(ctx, collection, older, docstore.Fields{"completed": true}))
	err = s.Update(ctx, collection, "does-not-exist", docstore.Fields{"completed": true})
	assert.True(t, docstore.IsNotFound(err))

	require.NoError(t, s.Delete(ctx, collection, older))
	require.NoError(t, s.Delete(ctx, collection, newer))
	require.NoError(t, s.Delete(ctx, collection, newer))
}
