package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC)
	in := Fields{
		"text":      "Buy milk",
		"completed": true,
		"createdAt": ts,
		"count":     int64(3),
		"ratio":     0.5,
		"note":      nil,
	}
	b, err := EncodeFields(in)
	require.NoError(t, err)

	out, err := DecodeFields(b)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", out["text"])
	assert.Equal(t, true, out["completed"])
	assert.True(t, ts.Equal(out["createdAt"].(time.Time)))
	assert.Equal(t, int64(3), out["count"])
	assert.Equal(t, 0.5, out["ratio"])
	assert.Nil(t, out["note"])
}

func TestEncodeRejectsUnsupported(t *testing.T) {
	_, err := EncodeFields(Fields{"bad": []string{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "bad"`)
}

func TestDecodeRejectsNestedObjects(t *testing.T) {
	_, err := DecodeFields([]byte(`{"x":{"a":1}}`))
	require.Error(t, err)
}

func TestSortDocuments(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []Document{
		{ID: "b", Fields: Fields{"createdAt": t0.Add(time.Minute)}},
		{ID: "a", Fields: Fields{"createdAt": t0}},
		{ID: "c", Fields: Fields{"createdAt": t0.Add(time.Minute)}},
		{ID: "d", Fields: Fields{"text": "no timestamp"}},
	}

	desc := SortDocuments(docs, "createdAt", Desc)
	require.Len(t, desc, 3, "documents without the field are omitted")
	assert.Equal(t, []string{"c", "b", "a"}, ids(desc))

	asc := SortDocuments(docs, "createdAt", Asc)
	assert.Equal(t, []string{"a", "b", "c"}, ids(asc))
}

func TestErrorWrapping(t *testing.T) {
	err := Wrap("update", "todos", "x1", ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "docstore update todos/x1: document not found", err.Error())

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "update", de.Op)
	assert.Same(t, err, Wrap("delete", "todos", "x1", err), "already wrapped errors pass through")
	assert.NoError(t, Wrap("create", "todos", "", nil))
}

type failingClient struct{ Client }

func (failingClient) Create(context.Context, string, Fields) (string, error) {
	return "", errors.New("boom")
}

func (failingClient) Delete(context.Context, string, string) error { return nil }

func TestInstrumentCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := Instrument(failingClient{}, m)

	_, err := c.Create(context.Background(), "todos", Fields{})
	require.Error(t, err)
	require.NoError(t, c.Delete(context.Background(), "todos", "x"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("create", "todos", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("delete", "todos", "ok")))
}

func ids(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}
