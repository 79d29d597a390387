package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/config"
	"github.com/Makepad-fr/tadasync/internal/store/docstore"
	"github.com/Makepad-fr/tadasync/internal/store/jsonstore"
	"github.com/Makepad-fr/tadasync/internal/store/memstore"
	"github.com/Makepad-fr/tadasync/internal/store/sqlstore"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := Open(ctx, config.Config{Driver: config.DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, c)

	c, err = Open(ctx, config.Config{Driver: config.DriverFile, Path: filepath.Join(dir, "tada.json")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &jsonstore.Store{}, c)

	c, err = Open(ctx, config.Config{Driver: config.DriverSQLite, Path: filepath.Join(dir, "tada.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlstore.Store{}, c)
	require.NoError(t, c.Close())
}

func TestOpenFailsOnMissingParameters(t *testing.T) {
	_, err := Open(context.Background(), config.Config{Driver: config.DriverFirestore}, nil)
	var me *config.MissingError
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Params, "TADA_FIREBASE_PROJECT_ID")
}

func TestOpenInstruments(t *testing.T) {
	m := docstore.NewMetrics(prometheus.NewRegistry())
	c, err := Open(context.Background(), config.Config{Driver: config.DriverMemory, Collection: "todos"}, m)
	require.NoError(t, err)

	_, err = c.ListOrderedBy(context.Background(), "todos", "createdAt", docstore.Desc)
	require.NoError(t, err)
	_, isMem := c.(*memstore.Store)
	assert.False(t, isMem, "instrumented client wraps the backend")
}
