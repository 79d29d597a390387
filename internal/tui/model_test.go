package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/notify"
	"github.com/Makepad-fr/tadasync/internal/repository"
	"github.com/Makepad-fr/tadasync/internal/state"
	"github.com/Makepad-fr/tadasync/internal/store/memstore"
	"github.com/Makepad-fr/tadasync/internal/testutil"
)

type harness struct {
	m     Model
	store *memstore.Store
	ctl   *state.Controller
	notes *notify.Center
}

func newHarness(t *testing.T, seed ...string) *harness {
	t.Helper()
	store := memstore.New()
	repo := repository.New(store)
	for _, s := range seed {
		_, err := repo.Create(context.Background(), s)
		require.NoError(t, err)
	}
	ctl := state.New(repo)
	notes := notify.NewCenter(notify.WithScheduler(testutil.NewManualClock(time.Unix(0, 0))))
	h := &harness{store: store, ctl: ctl, notes: notes}
	h.m = New(context.Background(), ctl, notes, 80, 40)
	h.run(h.m.Init())
	return h
}

// run executes cmd and feeds store results back into Update. Spinner ticks
// and other timer-driven messages are dropped.
func (h *harness) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case refreshedMsg, addedMsg, editedMsg, toggledMsg, removedMsg:
			next, cmd := h.m.Update(msg)
			h.m = next.(Model)
			queue = append(queue, cmd)
		}
	}
}

// press sends keys without running the returned commands.
func (h *harness) press(keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = h.m.Update(k)
		h.m = next.(Model)
	}
	return cmd
}

func (h *harness) lastNote(t *testing.T) notify.Notification {
	t.Helper()
	list := h.notes.List()
	require.NotEmpty(t, list)
	return list[len(list)-1]
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestMountLoadsList(t *testing.T) {
	h := newHarness(t, "first", "second")
	require.Len(t, h.m.list.Items(), 2)
	assert.Equal(t, "second", h.m.list.Items()[0].(listItem).todo.Text)
	assert.False(t, h.m.busy())
	assert.Contains(t, h.m.View(), "second")
}

func TestAddFlow(t *testing.T) {
	h := newHarness(t)
	h.press(runes("a"))
	assert.Equal(t, adding, h.m.mode)

	h.press(runes("  Buy milk "))
	h.run(h.press(enter))

	assert.Equal(t, browsing, h.m.mode)
	st := h.ctl.Snapshot()
	require.Len(t, st.Todos, 1)
	assert.Equal(t, "Buy milk", st.Todos[0].Text)
	require.Len(t, h.m.list.Items(), 1)

	n := h.lastNote(t)
	assert.Equal(t, notify.Success, n.Kind)
	assert.Equal(t, "Todo added successfully!", n.Title)
}

func TestEmptyAddStaysInInput(t *testing.T) {
	h := newHarness(t)
	h.press(runes("a"), runes("   "))
	cmd := h.press(enter)

	assert.Nil(t, cmd)
	assert.Equal(t, adding, h.m.mode)
	assert.Equal(t, "Text cannot be empty", h.m.inputErr)
	assert.Equal(t, 0, h.store.Calls("create"))
	assert.Contains(t, h.m.View(), "Text cannot be empty")

	h.press(esc)
	assert.Equal(t, browsing, h.m.mode)
	assert.Empty(t, h.m.inputErr)
}

func TestToggleEditDelete(t *testing.T) {
	h := newHarness(t, "Buy milk")

	h.run(h.press(space))
	assert.True(t, h.ctl.Snapshot().Todos[0].Completed)
	assert.Equal(t, "Todo completed!", h.lastNote(t).Title)

	h.run(h.press(space))
	assert.False(t, h.ctl.Snapshot().Todos[0].Completed)
	assert.Equal(t, "Todo marked as incomplete", h.lastNote(t).Title)

	h.press(runes("e"))
	require.Equal(t, editing, h.m.mode)
	assert.Equal(t, "Buy milk", h.m.ti.Value())
	h.m.ti.SetValue("Buy oat milk")
	h.run(h.press(enter))
	assert.Equal(t, "Buy oat milk", h.ctl.Snapshot().Todos[0].Text)
	assert.Equal(t, "Todo updated successfully!", h.lastNote(t).Title)

	h.run(h.press(runes("d")))
	assert.Empty(t, h.ctl.Snapshot().Todos)
	assert.Empty(t, h.m.list.Items())
	assert.Equal(t, "Todo deleted successfully!", h.lastNote(t).Title)
	assert.Equal(t, 0, h.m.pending)
}

func TestMutationFailurePostsError(t *testing.T) {
	h := newHarness(t, "keep")
	h.store.SetFault(func(string) error { return errors.New("offline") })

	h.press(runes("a"), runes("new"))
	h.run(h.press(enter))

	n := h.lastNote(t)
	assert.Equal(t, notify.Error, n.Kind)
	assert.Equal(t, "Failed to add todo", n.Title)
	assert.Equal(t, "Please try again", n.Description)
	require.Len(t, h.m.list.Items(), 1)
	assert.Empty(t, h.ctl.Snapshot().Err)

	h.run(h.press(runes("d")))
	assert.Equal(t, "Failed to delete todo", h.lastNote(t).Title)
	assert.Len(t, h.m.list.Items(), 1)
}

func TestRefreshFailureShowsRetry(t *testing.T) {
	h := newHarness(t, "cached")
	h.store.SetFault(func(string) error { return errors.New("offline") })

	h.run(h.press(runes("r")))
	view := h.m.View()
	assert.Contains(t, view, "Failed to fetch todos")
	assert.Contains(t, view, "press r to retry")
	assert.Contains(t, view, "cached")

	h.store.SetFault(nil)
	h.run(h.press(runes("r")))
	assert.NotContains(t, h.m.View(), "press r to retry")
}

func TestKeysOnEmptyListAreNoops(t *testing.T) {
	h := newHarness(t)
	assert.Nil(t, h.press(space))
	assert.Nil(t, h.press(runes("d")))
	h.press(runes("e"))
	assert.Equal(t, browsing, h.m.mode)
	assert.Equal(t, 0, h.store.Calls("update"))
	assert.Contains(t, h.m.View(), "No todos yet")
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	cmd := h.press(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestNotificationsRender(t *testing.T) {
	h := newHarness(t)
	h.notes.Error("Failed to add todo", "Please try again")
	view := h.m.View()
	assert.Contains(t, view, "Failed to add todo")
	assert.Contains(t, view, "Please try again")
}

func TestWindowResize(t *testing.T) {
	h := newHarness(t)
	next, _ := h.m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	h.m = next.(Model)
	assert.Equal(t, 120, h.m.width)
	assert.Equal(t, 116, h.m.list.Width())
}
