package notify_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/notify"
	"github.com/Makepad-fr/tadasync/internal/testutil"
)

func newCenter() (*notify.Center, *testutil.ManualClock, *atomic.Int32) {
	clock := testutil.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var changes atomic.Int32
	c := notify.NewCenter(
		notify.WithScheduler(clock),
		notify.WithOnChange(func() { changes.Add(1) }),
	)
	return c, clock, &changes
}

func TestPostAppendsInOrder(t *testing.T) {
	c, _, changes := newCenter()
	a := c.Success("Todo added successfully!", "")
	b := c.Error("Failed to add todo", "Please try again")
	w := c.Warning("Careful", "")

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{a, b, w}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, notify.Error, list[1].Kind)
	assert.Equal(t, "Please try again", list[1].Description)
	assert.Equal(t, notify.DefaultDuration, list[0].Duration)
	assert.NotEqual(t, a, b)
	assert.Equal(t, int32(3), changes.Load())
}

func TestExpiresAfterDurationPlusGrace(t *testing.T) {
	c, clock, _ := newCenter()
	id := c.PostFor(notify.Success, "saved", "", 5000*time.Millisecond)
	require.Len(t, c.List(), 1)

	clock.Advance(4999 * time.Millisecond)
	require.Len(t, c.List(), 1)
	assert.False(t, c.List()[0].Leaving)

	clock.Advance(time.Millisecond)
	list := c.List()
	require.Len(t, list, 1, "still present during the exit grace")
	assert.Equal(t, id, list[0].ID)
	assert.True(t, list[0].Leaving)

	clock.Advance(300 * time.Millisecond)
	assert.Empty(t, c.List())
	assert.Equal(t, 0, clock.Pending())
}

func TestDismissIsImmediateAndIdempotent(t *testing.T) {
	c, clock, changes := newCenter()
	keep := c.Post(notify.Success, "keep", "")
	gone := c.Post(notify.Error, "gone", "")
	before := changes.Load()

	c.Dismiss(gone)
	require.Len(t, c.List(), 1)
	assert.Equal(t, keep, c.List()[0].ID)
	assert.Equal(t, 1, clock.Pending(), "dismissed timer was canceled")

	c.Dismiss(gone)
	c.Dismiss("never-existed")
	assert.Equal(t, before+1, changes.Load())
}

func TestDismissDuringGrace(t *testing.T) {
	c, clock, _ := newCenter()
	id := c.PostFor(notify.Warning, "w", "", time.Second)
	clock.Advance(time.Second)
	require.True(t, c.List()[0].Leaving)

	c.Dismiss(id)
	assert.Empty(t, c.List())
	assert.Equal(t, 0, clock.Pending())
	clock.Advance(time.Second)
	assert.Empty(t, c.List())
}

func TestCloseStopsTimers(t *testing.T) {
	c, clock, _ := newCenter()
	c.Post(notify.Success, "a", "")
	c.Post(notify.Success, "b", "")
	c.Close()
	assert.Empty(t, c.List())
	assert.Equal(t, 0, clock.Pending())

	c.Post(notify.Success, "after close", "")
	assert.Empty(t, c.List())
}

func TestNonPositiveDurationUsesDefault(t *testing.T) {
	c, _, _ := newCenter()
	c.PostFor(notify.Success, "x", "", 0)
	assert.Equal(t, notify.DefaultDuration, c.List()[0].Duration)
}

func TestRealSchedulerExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on wall-clock timers")
	}
	c := notify.NewCenter()
	defer c.Close()
	c.PostFor(notify.Success, "quick", "", 20*time.Millisecond)
	require.Len(t, c.List(), 1)
	assert.Eventually(t, func() bool { return len(c.List()) == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "success", notify.Success.String())
	assert.Equal(t, "error", notify.Error.String())
	assert.Equal(t, "warning", notify.Warning.String())
}
