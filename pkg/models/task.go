package models

import "time"

// TaskStatus represents the current lifecycle state of a work log task.
type TaskStatus string

const (
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusAbandoned  TaskStatus = "abandoned"
)

// ValidStatuses is the set of allowed TaskStatus values.
var ValidStatuses = map[TaskStatus]bool{
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusAbandoned:  true,
}

// Task represents a user-declared unit of work tracked in the work log,
// independently of GitHub state. IDs are opaque, generated at creation,
// and never reused.
type Task struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Status        TaskStatus   `json:"status"`
	Owner         string       `json:"owner,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	RelatedPRs    []string     `json:"related_prs,omitempty"`
	RelatedIssues []string     `json:"related_issues,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	Updates       []TaskUpdate `json:"updates,omitempty"`
}

// TaskUpdate is an append-only progress note attached to a task.
// Updates are ordered by creation time ascending and never mutated.
type TaskUpdate struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskFilter specifies criteria for listing tasks. Zero-valued fields
// impose no constraint; set fields are ANDed together.
type TaskFilter struct {
	Owner  string
	Status TaskStatus
	Since  *time.Time
}

// ReferenceKind distinguishes the two kinds of external references a task
// can be linked to.
type ReferenceKind string

const (
	ReferencePR    ReferenceKind = "pr"
	ReferenceIssue ReferenceKind = "issue"
)
