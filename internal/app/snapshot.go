package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hylla/vimdo/internal/domain"
)

// SnapshotVersion tags the export format.
const SnapshotVersion = "vimdo.snapshot.v1"

// Snapshot is a portable dump of every task.
type Snapshot struct {
	Version    string         `json:"version" yaml:"version"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Tasks      []SnapshotTask `json:"tasks" yaml:"tasks"`
}

// SnapshotTask is one exported task.
type SnapshotTask struct {
	ID          int64          `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Urgency     domain.Urgency `json:"urgency" yaml:"urgency"`
	Completed   bool           `json:"completed" yaml:"completed"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at"`
}

// ExportSnapshot captures all tasks.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
	}
	for _, task := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot upserts every task in snap, keeping ids.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()
	for _, task := range snap.Tasks {
		if err := s.repo.UpsertTask(ctx, task.toDomain(s.clock())); err != nil {
			return fmt.Errorf("import task %d: %w", task.ID, err)
		}
	}
	return nil
}

// Validate checks version, ids and required fields.
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.Version) != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	seen := map[int64]struct{}{}
	var errs []error
	for i, task := range s.Tasks {
		if task.ID <= 0 {
			errs = append(errs, fmt.Errorf("tasks[%d].id must be > 0", i))
			continue
		}
		if _, ok := seen[task.ID]; ok {
			errs = append(errs, fmt.Errorf("tasks[%d].id is duplicated: %d", i, task.ID))
		}
		seen[task.ID] = struct{}{}
		if strings.TrimSpace(task.Title) == "" {
			errs = append(errs, fmt.Errorf("tasks[%d].title is required", i))
		}
		if task.Urgency != 0 && !task.Urgency.Valid() {
			errs = append(errs, fmt.Errorf("tasks[%d].urgency %d out of range", i, task.Urgency))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(errs...))
	}
	return nil
}

func (s *Snapshot) sort() {
	slices.SortFunc(s.Tasks, func(a, b SnapshotTask) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Urgency:     t.Urgency,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (t SnapshotTask) toDomain(now time.Time) domain.Task {
	urgency := t.Urgency
	if urgency == 0 {
		urgency = domain.DefaultUrgency
	}
	created, updated := t.CreatedAt, t.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = created
	}
	return domain.Task{
		ID:          t.ID,
		Title:       strings.TrimSpace(t.Title),
		Description: strings.TrimSpace(t.Description),
		Urgency:     urgency,
		Completed:   t.Completed,
		CreatedAt:   created.UTC(),
		UpdatedAt:   updated.UTC(),
	}
}
