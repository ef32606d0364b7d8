package httpapi

import (
	"time"

	"github.com/hylla/vimdo/internal/domain"
)

// Task is the JSON shape of one task on the wire.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Urgency     int       `json:"urgency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTaskRequest is the body of POST /todos.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Urgency     int    `json:"urgency,omitempty"`
}

// ReplaceTaskRequest is the body of PUT /todos/{id}. Every mutable field is
// replaced; id and timestamps in the body are ignored.
type ReplaceTaskRequest struct {
	ID          int64      `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Urgency     int        `json:"urgency"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// TaskFromDomain converts a domain task for the wire.
func TaskFromDomain(t domain.Task) Task {
	return Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Urgency:     int(t.Urgency),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Domain converts a wire task back into the domain type.
func (t Task) Domain() domain.Task {
	return domain.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Urgency:     domain.Urgency(t.Urgency),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
