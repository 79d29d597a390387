package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

const dateLayout = "Jan 2 15:04"

// listItem adapts a Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string {
	t := ui.Current()
	box := t.BoxUnchecked
	if i.todo.Completed {
		box = t.BoxChecked
	}
	return fmt.Sprintf("%s %s", box, i.todo.Text)
}

func (i listItem) Description() string {
	s := "created " + i.todo.CreatedAt.Local().Format(dateLayout)
	if i.todo.Edited() {
		s += " · updated " + i.todo.UpdatedAt.Local().Format(dateLayout)
	}
	return s
}

func (i listItem) FilterValue() string { return i.todo.Text }

func toItems(todos []model.Todo) []list.Item {
	out := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		out = append(out, listItem{todo: t})
	}
	return out
}

// itemDelegate renders the todo line and a muted date line under it.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 2 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()

	box := t.Muted.Render(t.BoxUnchecked)
	text := it.todo.Text
	if it.todo.Completed {
		box = t.Success.Render(t.BoxChecked)
		text = t.Done.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprintf(w, "%s%s %s\n", prefix, box, text)
	fmt.Fprintf(w, "    %s", t.Muted.Render(it.Description()))
}
