// Package storage provides the durable persistence layer for the standup
// agent: the SQLite-backed work log (tasks and their progress notes) and
// the standup history store.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// ErrTaskNotFound signals that a task id does not exist. It is a
// recoverable condition (typos in ids are expected); callers check it with
// errors.Is and produce a user-facing message.
var ErrTaskNotFound = errors.New("task not found")

const taskSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'in_progress',
	owner TEXT,
	tags TEXT NOT NULL DEFAULT '[]',
	related_prs TEXT NOT NULL DEFAULT '[]',
	related_issues TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	completed_at TEXT
);

CREATE TABLE IF NOT EXISTS task_updates (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id),
	note TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_updates_task_id ON task_updates(task_id);
CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at);
`

// sqliteTimeFormat is RFC 3339 with a fixed-width fractional second.
// Timestamps are compared as strings in SQL, and time.RFC3339Nano drops
// the fraction entirely when nanoseconds are zero, which would make such
// a value sort after every fractional timestamp in the same second.
// Reads keep parsing with time.RFC3339Nano, which accepts both forms.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// TaskStoreManager defines the interface for durable task CRUD, lifecycle,
// and time-windowed retrieval.
type TaskStoreManager interface {
	// CreateTask inserts a new in_progress task and returns it. There is
	// no uniqueness constraint on titles.
	CreateTask(owner, title string, tags []string) (*models.Task, error)

	// UpdateStatus sets a task's status and bumps updated_at. The first
	// transition to completed sets completed_at; later writes keep the
	// existing value. Returns ErrTaskNotFound for an unknown id.
	UpdateStatus(taskID string, status models.TaskStatus) (*models.Task, error)

	// AddUpdate inserts a progress note and bumps the owning task's
	// updated_at in one transaction. The store re-validates that the task
	// exists and returns ErrTaskNotFound if it does not.
	AddUpdate(taskID, note string) (*models.TaskUpdate, error)

	// GetTask returns a task with its updates ordered ascending by
	// creation time, or ErrTaskNotFound.
	GetTask(taskID string) (*models.Task, error)

	// ListTasks returns tasks matching the filter, ordered by updated_at
	// descending. Updates are not attached.
	ListTasks(filter models.TaskFilter) ([]*models.Task, error)

	// StandupWindow returns tasks updated within the lookback window OR
	// still in_progress (open work never ages out of a standup), each
	// with its updates attached. owner may be empty for no constraint.
	StandupWindow(owner string, daysBack int) ([]*models.Task, error)

	// LinkReference appends a PR or issue reference to a task if not
	// already present. Returns false (and no error) if the task is missing.
	LinkReference(taskID string, kind models.ReferenceKind, ref string) (bool, error)

	// ClearAll atomically deletes every task and update, returning the
	// number of tasks removed. Administrative reset only.
	ClearAll() (int, error)

	Close() error
}

// sqliteTaskStore implements TaskStoreManager on a SQLite database with
// two tables, tasks and task_updates. List-valued columns (tags,
// related_prs, related_issues) are stored as JSON arrays; the
// serialize/deserialize boundary is confined to this file.
type sqliteTaskStore struct {
	db *sql.DB
}

// NewTaskStore opens (creating if needed) the task database at dbPath and
// runs the idempotent schema migration.
func NewTaskStore(dbPath string) (TaskStoreManager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating task store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_fk=1")
	if err != nil {
		return nil, fmt.Errorf("opening task store: %w", err)
	}

	if _, err := db.Exec(taskSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing task store schema: %w", err)
	}

	return &sqliteTaskStore{db: db}, nil
}

// newID returns a 12-character opaque hex identifier.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *sqliteTaskStore) CreateTask(owner, title string, tags []string) (*models.Task, error) {
	id := newID()
	now := time.Now().UTC()

	tagsJSON, err := json.Marshal(emptyIfNil(tags))
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO tasks (id, title, status, owner, tags, related_prs, related_issues, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, '[]', '[]', ?, ?)`,
		id, title, string(models.StatusInProgress), owner, string(tagsJSON),
		now.Format(sqliteTimeFormat), now.Format(sqliteTimeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}

	return s.GetTask(id)
}

func (s *sqliteTaskStore) UpdateStatus(taskID string, status models.TaskStatus) (*models.Task, error) {
	now := time.Now().UTC().Format(sqliteTimeFormat)

	// completed_at is write-once: COALESCE keeps an existing value on
	// re-completion and on transitions away from completed.
	var completedAt any
	if status == models.StatusCompleted {
		completedAt = now
	}

	res, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ?,
		 completed_at = COALESCE(completed_at, ?) WHERE id = ?`,
		string(status), now, completedAt, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task %s status: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating task %s status: %w", taskID, err)
	}
	if n == 0 {
		return nil, ErrTaskNotFound
	}

	return s.GetTask(taskID)
}

func (s *sqliteTaskStore) AddUpdate(taskID, note string) (*models.TaskUpdate, error) {
	id := newID()
	now := time.Now().UTC()
	nowStr := now.Format(sqliteTimeFormat)

	// Note insert and parent timestamp bump are one logical operation:
	// wrap them in a transaction so no reader observes one without the other.
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("adding update to task %s: %w", taskID, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE tasks SET updated_at = ? WHERE id = ?`, nowStr, taskID)
	if err != nil {
		return nil, fmt.Errorf("adding update to task %s: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("adding update to task %s: %w", taskID, err)
	}
	if n == 0 {
		return nil, ErrTaskNotFound
	}

	if _, err := tx.Exec(
		`INSERT INTO task_updates (id, task_id, note, created_at) VALUES (?, ?, ?, ?)`,
		id, taskID, note, nowStr,
	); err != nil {
		return nil, fmt.Errorf("adding update to task %s: %w", taskID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("adding update to task %s: %w", taskID, err)
	}

	return &models.TaskUpdate{ID: id, TaskID: taskID, Note: note, CreatedAt: now}, nil
}

func (s *sqliteTaskStore) GetTask(taskID string) (*models.Task, error) {
	row := s.db.QueryRow(taskSelect+` WHERE id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}

	updates, err := s.updatesFor(taskID)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}
	task.Updates = updates

	return task, nil
}

func (s *sqliteTaskStore) ListTasks(filter models.TaskFilter) ([]*models.Task, error) {
	var clauses []string
	var args []any

	if filter.Owner != "" {
		clauses = append(clauses, "owner = ?")
		args = append(args, filter.Owner)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		clauses = append(clauses, "updated_at >= ?")
		args = append(args, filter.Since.UTC().Format(sqliteTimeFormat))
	}

	query := taskSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

func (s *sqliteTaskStore) StandupWindow(owner string, daysBack int) ([]*models.Task, error) {
	since := time.Now().UTC().AddDate(0, 0, -daysBack)

	query := taskSelect + ` WHERE (updated_at >= ? OR status = 'in_progress')`
	args := []any{since.Format(sqliteTimeFormat)}
	if owner != "" {
		query += ` AND owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying standup window: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		updates, err := s.updatesFor(t.ID)
		if err != nil {
			return nil, fmt.Errorf("querying standup window: %w", err)
		}
		t.Updates = updates
	}

	return tasks, nil
}

func (s *sqliteTaskStore) LinkReference(taskID string, kind models.ReferenceKind, ref string) (bool, error) {
	column := "related_prs"
	if kind == models.ReferenceIssue {
		column = "related_issues"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("linking %s to task %s: %w", kind, taskID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRow(`SELECT `+column+` FROM tasks WHERE id = ?`, taskID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("linking %s to task %s: %w", kind, taskID, err)
	}

	refs, err := decodeList(raw)
	if err != nil {
		return false, fmt.Errorf("linking %s to task %s: %w", kind, taskID, err)
	}

	// Deduplicate: linking an already-present reference is a no-op but
	// still bumps updated_at, matching a normal mutation.
	if !contains(refs, ref) {
		refs = append(refs, ref)
	}

	encoded, err := json.Marshal(refs)
	if err != nil {
		return false, fmt.Errorf("linking %s to task %s: %w", kind, taskID, err)
	}

	now := time.Now().UTC().Format(sqliteTimeFormat)
	if _, err := tx.Exec(
		`UPDATE tasks SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		string(encoded), now, taskID,
	); err != nil {
		return false, fmt.Errorf("linking %s to task %s: %w", kind, taskID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("linking %s to task %s: %w", kind, taskID, err)
	}

	return true, nil
}

func (s *sqliteTaskStore) ClearAll() (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("clearing tasks: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM task_updates`); err != nil {
		return 0, fmt.Errorf("clearing task updates: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("clearing tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing tasks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("clearing tasks: %w", err)
	}

	return int(n), nil
}

func (s *sqliteTaskStore) Close() error {
	return s.db.Close()
}

// --- Row scanning helpers ---

const taskSelect = `SELECT id, title, status, owner, tags, related_prs, related_issues, created_at, updated_at, completed_at FROM tasks`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t                    models.Task
		status               string
		owner                sql.NullString
		tags, prs, issues    string
		createdAt, updatedAt string
		completedAt          sql.NullString
	)

	err := row.Scan(&t.ID, &t.Title, &status, &owner, &tags, &prs, &issues, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	t.Status = models.TaskStatus(status)
	t.Owner = owner.String

	if t.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if t.RelatedPRs, err = decodeList(prs); err != nil {
		return nil, fmt.Errorf("decoding related_prs: %w", err)
	}
	if t.RelatedIssues, err = decodeList(issues); err != nil {
		return nil, fmt.Errorf("decoding related_issues: %w", err)
	}

	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if completedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		t.CompletedAt = &ts
	}

	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task rows: %w", err)
	}
	return tasks, nil
}

func (s *sqliteTaskStore) updatesFor(taskID string) ([]models.TaskUpdate, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, note, created_at FROM task_updates WHERE task_id = ? ORDER BY created_at ASC`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var updates []models.TaskUpdate
	for rows.Next() {
		var (
			u         models.TaskUpdate
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.TaskID, &u.Note, &createdAt); err != nil {
			return nil, err
		}
		if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing update created_at: %w", err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
