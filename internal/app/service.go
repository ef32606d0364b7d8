package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hylla/vimdo/internal/domain"
)

// Clock returns the current time.
type Clock func() time.Time

// Service implements task use-cases over a Repository.
type Service struct {
	repo  Repository
	clock Clock
}

// NewService constructs a Service. A nil clock falls back to time.Now.
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:  repo,
		clock: clock,
	}
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	Title       string
	Description string
	Urgency     domain.Urgency
}

// ReplaceTaskInput carries every mutable field of an existing task.
type ReplaceTaskInput struct {
	ID          int64
	Title       string
	Description string
	Urgency     domain.Urgency
	Completed   bool
}

// ListTasks returns all tasks ordered by id.
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx)
}

// GetTask returns a single task.
func (s *Service) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	if id <= 0 {
		return domain.Task{}, domain.ErrInvalidID
	}
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, taskLookupError(id, err)
	}
	return task, nil
}

// CreateTask creates task.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	task, err := domain.NewTask(domain.TaskInput{
		Title:       in.Title,
		Description: in.Description,
		Urgency:     in.Urgency,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	return s.repo.CreateTask(ctx, task)
}

// ReplaceTask overwrites every mutable field of an existing task.
func (s *Service) ReplaceTask(ctx context.Context, in ReplaceTaskInput) (domain.Task, error) {
	task, err := s.GetTask(ctx, in.ID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.Replace(domain.TaskInput{
		Title:       in.Title,
		Description: in.Description,
		Urgency:     in.Urgency,
		Completed:   in.Completed,
	}, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, taskLookupError(in.ID, err)
	}
	return task, nil
}

// ToggleTask flips the completion flag of a task.
func (s *Service) ToggleTask(ctx context.Context, id int64) (domain.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	task.Toggle(s.clock())
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, taskLookupError(id, err)
	}
	return task, nil
}

// DeleteTask removes a task permanently.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return taskLookupError(id, err)
	}
	return nil
}

func taskLookupError(id int64, err error) error {
	return fmt.Errorf("task with id %d: %w", id, err)
}
