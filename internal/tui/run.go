package tui

import (
	"context"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Makepad-fr/tadasync/internal/notify"
	"github.com/Makepad-fr/tadasync/internal/state"
)

// Run starts the interactive list and blocks until the user quits.
func Run(ctx context.Context, ctl *state.Controller) error {
	var prog atomic.Pointer[tea.Program]
	notes := notify.NewCenter(notify.WithOnChange(func() {
		// timers fire off the event loop, and posts from Update must not block it
		if p := prog.Load(); p != nil {
			go p.Send(notesChangedMsg{})
		}
	}))
	defer notes.Close()

	w, h := termSize()
	p := tea.NewProgram(New(ctx, ctl, notes, w, h), tea.WithAltScreen(), tea.WithContext(ctx))
	prog.Store(p)
	_, err := p.Run()
	return err
}

func termSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return defaultWidth, defaultHeight
	}
	return w, h
}
