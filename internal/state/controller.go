// Package state holds the session copy of the todo list and keeps it in step
// with the repository. Every mutation is confirm-then-apply.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/repository"
)

// ErrSuperseded means a newer operation on the same resource was issued
// while this one was in flight; its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

const refreshKey = "refresh"

// Repository is what the controller needs from the persistence layer.
type Repository interface {
	Create(ctx context.Context, text string) (model.Todo, error)
	List(ctx context.Context) ([]model.Todo, error)
	UpdateFields(ctx context.Context, id string, p model.Patch) error
	Delete(ctx context.Context, id string) error
	ToggleCompleted(ctx context.Context, id string, completed bool) error
}

// State is a point-in-time copy of the controller.
type State struct {
	Todos   []model.Todo
	Loading bool
	Err     string
}

// Stats counts the list.
type Stats struct {
	Total, Completed, Remaining int
}

type flight struct {
	token  uint64
	cancel context.CancelFunc
}

// Controller is safe for concurrent use.
type Controller struct {
	repo Repository
	now  func() time.Time

	mu       sync.Mutex
	todos    []model.Todo
	loading  bool
	err      string
	seq      uint64
	inflight map[string]flight
}

// Option tunes a Controller.
type Option func(*Controller)

// WithClock sets the clock used for local UpdatedAt patches.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller in its initial loading state. Call Mount to load.
func New(repo Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:     repo,
		now:      time.Now,
		loading:  true,
		inflight: map[string]flight{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Mount performs the initial refresh.
func (c *Controller) Mount(ctx context.Context) error { return c.Refresh(ctx) }

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	todos := make([]model.Todo, len(c.todos))
	copy(todos, c.todos)
	return State{Todos: todos, Loading: c.loading, Err: c.err}
}

// Stats counts completed and remaining todos.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Total: len(c.todos)}
	for _, t := range c.todos {
		if t.Completed {
			s.Completed++
		}
	}
	s.Remaining = s.Total - s.Completed
	return s
}

// Find returns the local copy of a todo.
func (c *Controller) Find(id string) (model.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.todos[i], true
	}
	return model.Todo{}, false
}

// Refresh replaces the list with the repository's. On failure the previous list
// stays and Err holds the user-facing message.
func (c *Controller) Refresh(ctx context.Context) error {
	ctx, token := c.begin(ctx, refreshKey)
	c.mu.Lock()
	c.loading = true
	c.err = ""
	c.mu.Unlock()

	todos, err := c.repo.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finishLocked(refreshKey, token) {
		glog.V(1).Infof("[state] dropped superseded refresh")
		return ErrSuperseded
	}
	c.loading = false
	if err != nil {
		c.err = Message(err)
		return err
	}
	c.todos = todos
	return nil
}

// Add creates a todo and, once the store confirms, puts it at the head of the list.
func (c *Controller) Add(ctx context.Context, text string) (model.Todo, error) {
	if _, err := model.NormalizeText(text); err != nil {
		return model.Todo{}, err
	}
	todo, err := c.repo.Create(ctx, text)
	if err != nil {
		return model.Todo{}, err
	}
	c.mu.Lock()
	c.todos = append([]model.Todo{todo}, c.todos...)
	c.mu.Unlock()
	return todo, nil
}

// Edit replaces a todo's text.
func (c *Controller) Edit(ctx context.Context, id, text string) error {
	text, err := model.NormalizeText(text)
	if err != nil {
		return err
	}
	key := id + "/text"
	ctx, token := c.begin(ctx, key)
	err = c.repo.UpdateFields(ctx, id, model.Patch{Text: &text})

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finishLocked(key, token) {
		return ErrSuperseded
	}
	if err != nil {
		return err
	}
	if i := c.indexLocked(id); i >= 0 {
		c.todos[i].Text = text
		c.todos[i].UpdatedAt = c.now().UTC()
	}
	return nil
}

// Toggle flips completed and returns the new value. An id missing from the
// local list is a no-op.
func (c *Controller) Toggle(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return false, nil
	}
	next := !c.todos[i].Completed
	c.mu.Unlock()

	key := id + "/completed"
	ctx, token := c.begin(ctx, key)
	err := c.repo.ToggleCompleted(ctx, id, next)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finishLocked(key, token) {
		return next, ErrSuperseded
	}
	if err != nil {
		return !next, err
	}
	if i := c.indexLocked(id); i >= 0 {
		c.todos[i].Completed = next
		c.todos[i].UpdatedAt = c.now().UTC()
	}
	return next, nil
}

// Remove deletes a todo and drops it from the list.
func (c *Controller) Remove(ctx context.Context, id string) error {
	key := id + "/delete"
	ctx, token := c.begin(ctx, key)
	err := c.repo.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finishLocked(key, token) {
		return ErrSuperseded
	}
	if err != nil {
		return err
	}
	kept := c.todos[:0]
	for _, t := range c.todos {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	c.todos = kept
	return nil
}

// begin supersedes any in-flight operation on key and returns a context
// canceled when this one is superseded in turn.
func (c *Controller) begin(ctx context.Context, key string) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.inflight[key]; ok {
		prev.cancel()
	}
	c.seq++
	c.inflight[key] = flight{token: c.seq, cancel: cancel}
	return ctx, c.seq
}

// finishLocked reports whether token is still current for key and retires it.
func (c *Controller) finishLocked(key string, token uint64) bool {
	f, ok := c.inflight[key]
	if !ok || f.token != token {
		return false
	}
	f.cancel()
	delete(c.inflight, key)
	return true
}

func (c *Controller) indexLocked(id string) int {
	for i, t := range c.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Message is the text to show the user for err.
func Message(err error) string {
	var re *repository.Error
	if errors.As(err, &re) {
		return re.Message
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return "Text cannot be empty"
	}
	if err == nil {
		return ""
	}
	return "Something went wrong"
}
