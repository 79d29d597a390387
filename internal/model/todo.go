package model

import (
	"strings"
	"time"
)

// Todo is the domain model for a task entry.
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Text      *string
	Completed *bool
}

// ValidationError rejects input before it reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

// NormalizeText trims text and rejects empty or whitespace-only input.
func NormalizeText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", &ValidationError{Field: "text", Reason: "cannot be empty"}
	}
	return t, nil
}

// Edited reports whether the todo changed after creation.
func (t Todo) Edited() bool { return t.UpdatedAt.After(t.CreatedAt) }
