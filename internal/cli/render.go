package cli

import (
	"fmt"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/state"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

const maxTextRunes = 80

type numbered struct {
	n    int
	todo model.Todo
}

func indexed(todos []model.Todo) []numbered {
	out := make([]numbered, len(todos))
	for i, t := range todos {
		out[i] = numbered{n: i + 1, todo: t}
	}
	return out
}

func listPanel(todos []model.Todo, s state.Stats, group bool) []string {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), s.Completed,
		t.Pending.Render(t.SymPending), s.Remaining,
		t.Accent.Render("Total"), s.Total,
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(s.Completed, s.Total, 28)))
	lines = append(lines, "")
	lines = append(lines, todoLines(indexed(todos), group)...)
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `tada add \"Buy milk\"`"))
	return lines
}

// todoLines keeps each todo's index from the full list, so grouped output
// can still be fed to done/edit/rm.
func todoLines(items []numbered, group bool) []string {
	if !group {
		return flatLines(items)
	}
	var pend, done []numbered
	for _, it := range items {
		if it.todo.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	t := ui.Current()
	section := func(title string, items []numbered) []string {
		lines := []string{t.Accent.Render(title)}
		if len(items) == 0 {
			return append(lines, t.Muted.Render("(none)"))
		}
		return append(lines, flatLines(items)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}

func flatLines(items []numbered) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no todos")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		box, style := t.BoxUnchecked, t.Muted
		if it.todo.Completed {
			box, style = t.BoxChecked, t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			t.Muted.Render(fmt.Sprintf("%2d.", it.n)), style.Render(box), truncate(it.todo.Text)))
	}
	return out
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxTextRunes {
		return s
	}
	return string(r[:maxTextRunes-3]) + "..."
}
