// Package notify keeps the short-lived messages shown after an action.
// Every notification removes itself once its duration and the exit grace
// have elapsed, unless dismissed first.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the tone of a notification.
type Kind int

const (
	Success Kind = iota
	Error
	Warning
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return "success"
}

const (
	DefaultDuration = 5 * time.Second
	// ExitGrace is how long a notification lingers in its leaving state.
	ExitGrace = 300 * time.Millisecond
)

// Notification is one message.
type Notification struct {
	ID          string
	Kind        Kind
	Title       string
	Description string
	Duration    time.Duration
	CreatedAt   time.Time
	Leaving     bool
}

// Scheduler runs f after d. The returned stop cancels it and reports whether
// it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
	Now() time.Time
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) func() bool { return time.AfterFunc(d, f).Stop }
func (realScheduler) Now() time.Time                                  { return time.Now() }

type entry struct {
	n    Notification
	stop func() bool
}

// Center holds notifications in posting order. Safe for concurrent use.
type Center struct {
	sched    Scheduler
	onChange func()

	mu      sync.Mutex
	entries []*entry
	closed  bool
}

// Option tunes a Center.
type Option func(*Center)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Center) { c.sched = s }
}

// WithOnChange registers a hook run after every change, outside the lock.
func WithOnChange(fn func()) Option {
	return func(c *Center) { c.onChange = fn }
}

// NewCenter returns an empty center.
func NewCenter(opts ...Option) *Center {
	c := &Center{sched: realScheduler{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Post adds a notification with DefaultDuration and returns its id.
func (c *Center) Post(kind Kind, title, description string) string {
	return c.PostFor(kind, title, description, DefaultDuration)
}

// PostFor adds a notification visible for d.
func (c *Center) PostFor(kind Kind, title, description string, d time.Duration) string {
	if d <= 0 {
		d = DefaultDuration
	}
	id := uuid.NewString()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return id
	}
	e := &entry{n: Notification{
		ID:          id,
		Kind:        kind,
		Title:       title,
		Description: description,
		Duration:    d,
		CreatedAt:   c.sched.Now(),
	}}
	c.entries = append(c.entries, e)
	e.stop = c.sched.AfterFunc(d, func() { c.leave(id) })
	c.mu.Unlock()
	c.changed()
	return id
}

func (c *Center) Success(title, description string) string {
	return c.Post(Success, title, description)
}

func (c *Center) Error(title, description string) string {
	return c.Post(Error, title, description)
}

func (c *Center) Warning(title, description string) string {
	return c.Post(Warning, title, description)
}

// Dismiss removes a notification now. Unknown ids are ignored.
func (c *Center) Dismiss(id string) {
	if c.remove(id) {
		c.changed()
	}
}

// List returns the current notifications, oldest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.n)
	}
	return out
}

// Close cancels every pending removal and drops all notifications.
func (c *Center) Close() {
	c.mu.Lock()
	for _, e := range c.entries {
		e.stop()
	}
	c.entries = nil
	c.closed = true
	c.mu.Unlock()
}

// leave starts the exit grace for id.
func (c *Center) leave(id string) {
	c.mu.Lock()
	e := c.findLocked(id)
	if e == nil || e.n.Leaving {
		c.mu.Unlock()
		return
	}
	e.n.Leaving = true
	e.stop = c.sched.AfterFunc(ExitGrace, func() {
		if c.remove(id) {
			c.changed()
		}
	})
	c.mu.Unlock()
	c.changed()
}

func (c *Center) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.n.ID == id {
			e.stop()
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Center) findLocked(id string) *entry {
	for _, e := range c.entries {
		if e.n.ID == id {
			return e
		}
	}
	return nil
}

func (c *Center) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
