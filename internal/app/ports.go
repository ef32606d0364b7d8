package app

import (
	"context"

	"github.com/hylla/vimdo/internal/domain"
)

// Repository persists tasks. Lookups of unknown ids return ErrNotFound.
type Repository interface {
	CreateTask(context.Context, domain.Task) (domain.Task, error)
	UpdateTask(context.Context, domain.Task) error
	UpsertTask(context.Context, domain.Task) error
	GetTask(context.Context, int64) (domain.Task, error)
	ListTasks(context.Context) ([]domain.Task, error)
	DeleteTask(context.Context, int64) error
}
