package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// memoryDBSeq keeps in-memory databases opened by one process apart.
var memoryDBSeq atomic.Int64

// Repository stores tasks in a single sqlite table.
type Repository struct {
	db *sql.DB
}

// Open opens (and migrates) the database file at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:vimdo-mem-%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0,
			urgency INTEGER NOT NULL DEFAULT 3,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_urgency ON todos(urgency, id);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateTask inserts t and returns it with the assigned id.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO todos(title, description, completed, urgency, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, t.Title, t.Description, boolToInt(t.Completed), int(t.Urgency), ts(t.CreatedAt), ts(t.UpdatedAt))
	if err != nil {
		return domain.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Task{}, err
	}
	t.ID = id
	return t, nil
}

// UpdateTask overwrites the stored row for t.ID.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, completed = ?, urgency = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, boolToInt(t.Completed), int(t.Urgency), ts(t.UpdatedAt), t.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// UpsertTask writes t under its own id, inserting when absent.
func (r *Repository) UpsertTask(ctx context.Context, t domain.Task) error {
	if t.ID <= 0 {
		return domain.ErrInvalidID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos(id, title, description, completed, urgency, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			completed = excluded.completed,
			urgency = excluded.urgency,
			updated_at = excluded.updated_at
	`, t.ID, t.Title, t.Description, boolToInt(t.Completed), int(t.Urgency), ts(t.CreatedAt), ts(t.UpdatedAt))
	return err
}

// GetTask returns task.
func (r *Repository) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, completed, urgency, created_at, updated_at
		FROM todos
		WHERE id = ?
	`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, app.ErrNotFound
	}
	return task, err
}

// ListTasks lists tasks.
func (r *Repository) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, completed, urgency, created_at, updated_at
		FROM todos
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// DeleteTask deletes task.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		task       domain.Task
		completed  int
		urgency    int
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&task.ID, &task.Title, &task.Description, &completed, &urgency, &createdRaw, &updatedRaw); err != nil {
		return domain.Task{}, err
	}
	task.Completed = completed != 0
	task.Urgency = domain.Urgency(urgency)
	task.CreatedAt = parseTS(createdRaw)
	task.UpdatedAt = parseTS(updatedRaw)
	return task, nil
}

// translateNoRows maps a zero-row write to app.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
