package domain

import (
	"strings"
	"time"
)

// Urgency ranks a task; 1 is the most urgent.
type Urgency int

const (
	UrgencyUrgent    Urgency = 1
	UrgencyImportant Urgency = 2
	UrgencyNormal    Urgency = 3
)

// DefaultUrgency applies when a task is created without one.
const DefaultUrgency = UrgencyNormal

// Urgencies lists the selectable urgencies in display order.
func Urgencies() []Urgency {
	return []Urgency{UrgencyUrgent, UrgencyImportant, UrgencyNormal}
}

// Valid reports whether u is one of the selectable urgencies.
func (u Urgency) Valid() bool {
	return u >= UrgencyUrgent && u <= UrgencyNormal
}

// Label returns the human name used by radio controls and the CLI.
func (u Urgency) Label() string {
	switch u {
	case UrgencyUrgent:
		return "urgent"
	case UrgencyImportant:
		return "important"
	default:
		return "normal"
	}
}

// Task is one board entry. Urgency decides its column.
type Task struct {
	ID          int64
	Title       string
	Description string
	Urgency     Urgency
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskInput holds the caller-supplied fields of a new task.
type TaskInput struct {
	Title       string
	Description string
	Urgency     Urgency
	Completed   bool
}

// NewTask validates in and returns an unsaved task; the store assigns the id.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return Task{}, err
	}
	return Task{
		Title:       in.Title,
		Description: in.Description,
		Urgency:     in.Urgency,
		Completed:   in.Completed,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Replace overwrites every mutable field of t.
func (t *Task) Replace(in TaskInput, now time.Time) error {
	in, err := normalizeInput(in)
	if err != nil {
		return err
	}
	t.Title = in.Title
	t.Description = in.Description
	t.Urgency = in.Urgency
	t.Completed = in.Completed
	t.UpdatedAt = now.UTC()
	return nil
}

// Toggle flips the completion flag.
func (t *Task) Toggle(now time.Time) {
	t.Completed = !t.Completed
	t.UpdatedAt = now.UTC()
}

// Input returns the mutable fields of t.
func (t Task) Input() TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Urgency:     t.Urgency,
		Completed:   t.Completed,
	}
}

// Category is the board column t belongs to.
func (t Task) Category() Category {
	return CategoryFor(t.Urgency)
}

func normalizeInput(in TaskInput) (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return TaskInput{}, ErrInvalidTitle
	}
	if in.Urgency == 0 {
		in.Urgency = DefaultUrgency
	}
	if !in.Urgency.Valid() {
		return TaskInput{}, ErrInvalidUrgency
	}
	return in, nil
}
