package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/state"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

const indexHint = "Hint: run `tada ls` to see valid indexes"

// ListOptions tune `tada ls`.
type ListOptions struct {
	Plain bool // one line per todo, no frame, never interactive
	Group bool // pending first, then done
}

// todoView is one listed todo with its 1-based index.
type todoView struct {
	Index int `json:"index"`
	model.Todo
}

type statsView struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
}

type listView struct {
	Todos []todoView `json:"todos"`
	Stats statsView  `json:"stats"`
}

func (a *app) newListCommand() *cobra.Command {
	opts := &ListOptions{}
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List todos (interactive on a terminal)",
		Args:  exactArgs(0, "tada ls"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !opts.Plain && a.interactive() {
				ctl, done, err := a.session(ctx, false)
				if err != nil {
					return err
				}
				defer done()
				if err := a.env.Interactive(ctx, ctl); err != nil {
					return &ExitError{Code: ExitFailure, Message: "tui: " + err.Error(), Err: err}
				}
				return nil
			}

			ctl, done, err := a.session(ctx, true)
			if err != nil {
				return err
			}
			defer done()
			todos := ctl.Snapshot().Todos
			s := ctl.Stats()
			out := a.output()
			if out.json() {
				v := listView{
					Todos: make([]todoView, 0, len(todos)),
					Stats: statsView{Total: s.Total, Completed: s.Completed, Remaining: s.Remaining},
				}
				for i, t := range todos {
					v.Todos = append(v.Todos, todoView{Index: i + 1, Todo: t})
				}
				return out.success(v, "")
			}
			if opts.Plain {
				for _, ln := range todoLines(indexed(todos), opts.Group) {
					fmt.Fprintln(a.env.Stdout, ln)
				}
				return nil
			}
			ui.Panel(a.env.Stdout, listPanel(todos, s, opts.Group))
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "plain output, no frame or interactive view")
	cmd.Flags().BoolVar(&opts.Group, "group", false, "group output by pending/done")
	return cmd
}

func (a *app) newAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a new todo (text can be multiple words)",
		Args:  minArgs(1, "tada add <text...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text := strings.Join(args, " ")
			if _, err := model.NormalizeText(text); err != nil {
				return invalidText("add", err)
			}
			ctl, done, err := a.session(ctx, false)
			if err != nil {
				return err
			}
			defer done()
			todo, err := ctl.Add(ctx, text)
			if err != nil {
				return err
			}
			return a.output().success(todo, "added")
		},
	}
}

func (a *app) newDoneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "done <index>",
		Short: "Toggle completed for the todo at a 1-based index",
		Args:  exactArgs(1, "tada done <index>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := parseIndex("done", args[0])
			if err != nil {
				return err
			}
			ctl, done, err := a.session(ctx, true)
			if err != nil {
				return err
			}
			defer done()
			todo, err := pick(ctl, n)
			if err != nil {
				return err
			}
			completed, err := ctl.Toggle(ctx, todo.ID)
			if err != nil {
				return err
			}
			todo, _ = ctl.Find(todo.ID)
			msg := "reopened"
			if completed {
				msg = "completed"
			}
			return a.output().success(todo, msg)
		},
	}
}

func (a *app) newEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <index> <text...>",
		Short: "Replace the text of the todo at a 1-based index",
		Args:  minArgs(2, "tada edit <index> <text...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := parseIndex("edit", args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if _, err := model.NormalizeText(text); err != nil {
				return invalidText("edit", err)
			}
			ctl, done, err := a.session(ctx, true)
			if err != nil {
				return err
			}
			defer done()
			todo, err := pick(ctl, n)
			if err != nil {
				return err
			}
			if err := ctl.Edit(ctx, todo.ID, text); err != nil {
				return err
			}
			todo, _ = ctl.Find(todo.ID)
			return a.output().success(todo, "updated")
		},
	}
}

func (a *app) newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove"},
		Short:   "Remove the todo at a 1-based index",
		Args:    exactArgs(1, "tada rm <index>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := parseIndex("rm", args[0])
			if err != nil {
				return err
			}
			ctl, done, err := a.session(ctx, true)
			if err != nil {
				return err
			}
			defer done()
			todo, err := pick(ctl, n)
			if err != nil {
				return err
			}
			if err := ctl.Remove(ctx, todo.ID); err != nil {
				return err
			}
			return a.output().success(todo, "removed")
		},
	}
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError("usage: %s", usage)
		}
		return nil
	}
}

func minArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usageError("usage: %s", usage)
		}
		return nil
	}
}

func parseIndex(cmd, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, usageError("%s: not a number: %s", cmd, s)
	}
	return n, nil
}

func invalidText(cmd string, err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &ExitError{Code: ExitUsage, Message: cmd + ": " + state.Message(err), Err: err}
	}
	return err
}

// pick resolves a 1-based index against the list as `tada ls` shows it.
func pick(ctl *state.Controller, n int) (model.Todo, error) {
	todos := ctl.Snapshot().Todos
	if n < 1 || n > len(todos) {
		return model.Todo{}, &ExitError{
			Code:    ExitUsage,
			Message: fmt.Sprintf("index out of range: have %d, got %d", len(todos), n),
			Hint:    indexHint,
		}
	}
	return todos[n-1], nil
}
