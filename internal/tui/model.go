// Package tui is the interactive terminal view over the todo list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/notify"
	"github.com/Makepad-fr/tadasync/internal/state"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

const (
	msgAdded       = "Todo added successfully!"
	msgUpdated     = "Todo updated successfully!"
	msgDeleted     = "Todo deleted successfully!"
	msgCompleted   = "Todo completed!"
	msgReopened    = "Todo marked as incomplete"
	msgAddFailed   = "Failed to add todo"
	msgSaveFailed  = "Failed to update todo"
	msgDelFailed   = "Failed to delete todo"
	msgTryAgain    = "Please try again"
	msgEmptyText   = "Text cannot be empty"
	notesMaxWidth  = 36
	defaultWidth   = 80
	defaultHeight  = 24
	chromeRows     = 8 // header, notes gap, footer, frame
	inputChromeRow = 4
)

type mode int

const (
	browsing mode = iota
	adding
	editing
)

// results of store work, delivered back to Update
type (
	refreshedMsg    struct{ err error }
	addedMsg        struct{ err error }
	editedMsg       struct{ err error }
	toggledMsg      struct {
		completed bool
		err       error
	}
	removedMsg      struct{ err error }
	notesChangedMsg struct{}
)

// Model is the bubbletea model. Store calls run in tea.Cmds; the controller
// owns the list and the notification center owns the toasts.
type Model struct {
	ctx   context.Context
	ctl   *state.Controller
	notes *notify.Center
	keys  keyMap

	list list.Model
	ti   textinput.Model
	spin spinner.Model

	mode     mode
	editID   string
	inputErr string

	pending int
	ticking bool
	width   int
	height  int
}

// New builds the model. width and height seed the layout until the first
// WindowSizeMsg arrives.
func New(ctx context.Context, ctl *state.Controller, notes *notify.Center, width, height int) Model {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	keys := defaultKeys()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.HelpStyle = ui.Current().Muted
	l.Styles.PaginationStyle = ui.Current().Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.AdditionalShortHelpKeys = keys.help
	l.AdditionalFullHelpKeys = keys.help

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:    ctx,
		ctl:    ctl,
		notes:  notes,
		keys:   keys,
		list:   l,
		ti:     ti,
		spin:   sp,
		width:  width,
		height: height,
		// Init starts the mount refresh and the spinner
		pending: 1,
		ticking: true,
	}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return refreshedMsg{err: ctl.Mount(ctx)}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case notesChangedMsg:
		return m, nil

	case refreshedMsg:
		m.pending--
		if errors.Is(msg.err, state.ErrSuperseded) {
			return m, nil
		}
		// failures surface inline with the retry hint
		return m, m.sync()

	case addedMsg:
		m.pending--
		m.report(msg.err, msgAdded, msgAddFailed)
		return m, m.sync()

	case editedMsg:
		m.pending--
		m.report(msg.err, msgUpdated, msgSaveFailed)
		return m, m.sync()

	case toggledMsg:
		m.pending--
		ok := msgReopened
		if msg.completed {
			ok = msgCompleted
		}
		m.report(msg.err, ok, msgSaveFailed)
		return m, m.sync()

	case removedMsg:
		m.pending--
		m.report(msg.err, msgDeleted, msgDelFailed)
		return m, m.sync()

	case tea.KeyMsg:
		if m.mode != browsing {
			return m.updateInput(msg)
		}
		if m.list.SettingFilter() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Add):
			m.mode = adding
			m.inputErr = ""
			m.ti.SetValue("")
			m.ti.Placeholder = "What needs to be done?"
			return m, m.ti.Focus()
		case key.Matches(msg, m.keys.Edit):
			it, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.mode = editing
			m.editID = it.todo.ID
			m.inputErr = ""
			m.ti.SetValue(it.todo.Text)
			m.ti.CursorEnd()
			m.ti.Placeholder = "Edit todo..."
			return m, m.ti.Focus()
		case key.Matches(msg, m.keys.Toggle):
			it, ok := m.selected()
			if !ok {
				return m, nil
			}
			return m, m.start(m.toggleCmd(it.todo.ID))
		case key.Matches(msg, m.keys.Delete):
			it, ok := m.selected()
			if !ok {
				return m, nil
			}
			return m, m.start(m.removeCmd(it.todo.ID))
		case key.Matches(msg, m.keys.Refresh):
			ctl, ctx := m.ctl, m.ctx
			cmd := func() tea.Msg { return refreshedMsg{err: ctl.Refresh(ctx)} }
			return m, m.start(cmd)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text, err := model.NormalizeText(m.ti.Value())
		if err != nil {
			m.inputErr = msgEmptyText
			return m, nil
		}
		var cmd tea.Cmd
		if m.mode == adding {
			cmd = m.addCmd(text)
		} else {
			cmd = m.editCmd(m.editID, text)
		}
		m.closeInput()
		return m, m.start(cmd)
	case "esc":
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = browsing
	m.editID = ""
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

// start counts cmd as in flight and keeps the spinner running.
func (m *Model) start(cmd tea.Cmd) tea.Cmd {
	m.pending++
	return tea.Batch(m.tick(), cmd)
}

func (m *Model) tick() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.spin.Tick
}

func (m Model) busy() bool {
	return m.pending > 0
}

func (m Model) addCmd(text string) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		_, err := ctl.Add(ctx, text)
		return addedMsg{err: err}
	}
}

func (m Model) editCmd(id, text string) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg { return editedMsg{err: ctl.Edit(ctx, id, text)} }
}

func (m Model) toggleCmd(id string) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		completed, err := ctl.Toggle(ctx, id)
		return toggledMsg{completed: completed, err: err}
	}
}

func (m Model) removeCmd(id string) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg { return removedMsg{err: ctl.Remove(ctx, id)} }
}

// report posts the outcome of a mutation. Superseded results say nothing;
// the newer request reports for both.
func (m Model) report(err error, success, failure string) {
	switch {
	case err == nil:
		m.notes.Success(success, "")
	case errors.Is(err, state.ErrSuperseded):
	default:
		m.notes.Error(failure, msgTryAgain)
	}
}

// sync copies the controller's list into the view, keeping the cursor on the
// same todo when it still exists.
func (m *Model) sync() tea.Cmd {
	var keep string
	if it, ok := m.selected(); ok {
		keep = it.todo.ID
	}
	cmd := m.list.SetItems(toItems(m.ctl.Snapshot().Todos))
	for i, item := range m.list.Items() {
		if item.(listItem).todo.ID == keep {
			m.list.Select(i)
			break
		}
	}
	return cmd
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

func (m *Model) resize() {
	rows := m.height - chromeRows
	if m.mode != browsing {
		rows -= inputChromeRow
	}
	if rows < 2 {
		rows = 2
	}
	m.list.SetSize(m.width-4, rows)
}

func (m Model) View() string {
	t := ui.Current()
	st := m.ctl.Snapshot()
	stats := m.ctl.Stats()

	header := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), stats.Completed,
		t.Pending.Render(t.SymPending), stats.Remaining,
		t.Accent.Render("Total"), stats.Total,
	)
	if m.busy() {
		header += "  " + m.spin.View()
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	if notes := m.renderNotes(); notes != "" {
		b.WriteString(lipgloss.PlaceHorizontal(m.width-4, lipgloss.Right, notes))
		b.WriteString("\n")
	}

	switch {
	case st.Loading && len(st.Todos) == 0:
		b.WriteString(m.spin.View() + " Loading todos...")
	case st.Err != "":
		b.WriteString(t.Error.Render(t.SymFail+" "+st.Err) + "  " + t.Muted.Render("press r to retry"))
		if len(st.Todos) > 0 {
			b.WriteString("\n" + m.list.View())
		}
	case len(st.Todos) == 0:
		b.WriteString(t.Muted.Render("No todos yet. Press a to add one."))
	default:
		b.WriteString(m.list.View())
	}

	if m.mode != browsing {
		title := "Add todo"
		if m.mode == editing {
			title = "Edit todo"
		}
		if m.inputErr != "" {
			title += "  " + t.Error.Render(m.inputErr)
		}
		b.WriteString("\n" + ui.Frame(title+"\n"+m.ti.View()))
	}

	footer := fmt.Sprintf("%d total · %d completed · %d remaining   %s",
		stats.Total, stats.Completed, stats.Remaining,
		ui.ProgressBar(stats.Completed, stats.Total, 20))
	b.WriteString("\n" + t.Muted.Render(footer))
	return ui.Frame(b.String())
}

func (m Model) renderNotes() string {
	list := m.notes.List()
	if len(list) == 0 {
		return ""
	}
	t := ui.Current()
	boxes := make([]string, 0, len(list))
	for _, n := range list {
		style, sym := t.Success, t.SymOK
		switch n.Kind {
		case notify.Error:
			style, sym = t.Error, t.SymFail
		case notify.Warning:
			style, sym = t.Warning, t.SymWarn
		}
		body := style.Render(sym + " " + n.Title)
		if n.Description != "" {
			body += "\n" + t.Muted.Render(n.Description)
		}
		if n.Leaving {
			body = t.Muted.Render(sym + " " + n.Title)
		}
		boxes = append(boxes, lipgloss.NewStyle().MaxWidth(notesMaxWidth).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Right, boxes...)
}
