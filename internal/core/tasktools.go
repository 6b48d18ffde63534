package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// WorkLogStore is the subset of storage.TaskStoreManager that the task
// tools need. Defining it here keeps core independent of the storage
// package.
type WorkLogStore interface {
	CreateTask(owner, title string, tags []string) (*models.Task, error)
	UpdateStatus(taskID string, status models.TaskStatus) (*models.Task, error)
	AddUpdate(taskID, note string) (*models.TaskUpdate, error)
	GetTask(taskID string) (*models.Task, error)
	ListTasks(filter models.TaskFilter) ([]*models.Task, error)
	StandupWindow(owner string, daysBack int) ([]*models.Task, error)
	LinkReference(taskID string, kind models.ReferenceKind, ref string) (bool, error)
}

// ErrTaskNotFound is the not-found signal the tool layer understands.
// The app wiring adapts the store's sentinel onto this one so core stays
// independent of the storage package.
var ErrTaskNotFound = errors.New("task not found")

// TaskTools is the agent-facing operation surface over the work log.
// Each operation returns natural-language output suitable for an LLM tool
// result and emits a telemetry event. Matching a task by description is
// deliberately NOT solved here: the tools expose exact-id operations plus
// a listing operation, and the calling agent exercises judgement over the
// list.
type TaskTools struct {
	store  WorkLogStore
	events EventLogger
	now    func() time.Time
}

// NewTaskTools creates the agent-facing task tool surface. events may be
// nil to disable telemetry.
func NewTaskTools(store WorkLogStore, events EventLogger) *TaskTools {
	return &TaskTools{
		store:  store,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// LogTask records a new task the user started working on.
func (t *TaskTools) LogTask(rc *RunContext, title string, tags []string) (string, error) {
	task, err := t.store.CreateTask(rc.GitHubUsername, title, tags)
	if err != nil {
		return "", fmt.Errorf("logging task: %w", err)
	}

	emit(t.events, EventTaskCreated, map[string]any{
		"task_id": task.ID,
		"title":   title,
		"tags":    emptyTags(tags),
		"owner":   rc.GitHubUsername,
		"date":    t.today(),
	})

	tagsStr := ""
	if len(tags) > 0 {
		tagsStr = fmt.Sprintf(" [%s]", strings.Join(tags, ", "))
	}
	return fmt.Sprintf("Logged task: %q%s (id: %s)", title, tagsStr, task.ID), nil
}

// UpdateTask adds a progress note to a task and optionally changes its
// status. An unknown id produces a plain user-facing message, not an error.
func (t *TaskTools) UpdateTask(rc *RunContext, taskID, note string, status models.TaskStatus) (string, error) {
	existing, err := t.store.GetTask(taskID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("Task %s not found.", taskID), nil
		}
		return "", fmt.Errorf("updating task %s: %w", taskID, err)
	}

	if _, err := t.store.AddUpdate(taskID, note); err != nil {
		return "", fmt.Errorf("updating task %s: %w", taskID, err)
	}

	newStatus := existing.Status
	if status != "" && status != existing.Status {
		if _, err := t.store.UpdateStatus(taskID, status); err != nil {
			return "", fmt.Errorf("updating task %s status: %w", taskID, err)
		}
		newStatus = status
	}

	emit(t.events, EventTaskUpdated, map[string]any{
		"task_id":    taskID,
		"title":      existing.Title,
		"note":       note,
		"new_status": string(newStatus),
		"owner":      rc.GitHubUsername,
		"date":       t.today(),
	})

	statusMsg := ""
	if status != "" {
		statusMsg = fmt.Sprintf(" -> %s", newStatus)
	}
	return fmt.Sprintf("Updated task %q%s: %s", existing.Title, statusMsg, note), nil
}

// CompleteTask marks a task completed, optionally recording a final note,
// and reports how long the task was open.
func (t *TaskTools) CompleteTask(rc *RunContext, taskID, note string) (string, error) {
	existing, err := t.store.GetTask(taskID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("Task %s not found.", taskID), nil
		}
		return "", fmt.Errorf("completing task %s: %w", taskID, err)
	}

	if note != "" {
		if _, err := t.store.AddUpdate(taskID, note); err != nil {
			return "", fmt.Errorf("completing task %s: %w", taskID, err)
		}
	}

	if _, err := t.store.UpdateStatus(taskID, models.StatusCompleted); err != nil {
		return "", fmt.Errorf("completing task %s: %w", taskID, err)
	}

	durationHours := roundHours(t.now().Sub(existing.CreatedAt))

	emit(t.events, EventTaskCompleted, map[string]any{
		"task_id":        taskID,
		"title":          existing.Title,
		"duration_hours": durationHours,
		"owner":          rc.GitHubUsername,
		"date":           t.today(),
	})

	return fmt.Sprintf("Completed task %q (%.1fh)", existing.Title, durationHours), nil
}

// ListTasks shows the user's tasks, filtered by status when given,
// otherwise everything in the standup window. Results are stashed in the
// run context so other tools can cross-reference them.
func (t *TaskTools) ListTasks(rc *RunContext, status models.TaskStatus, daysBack int) (string, error) {
	if daysBack <= 0 {
		daysBack = 7
	}

	var tasks []*models.Task
	var err error
	if status != "" {
		tasks, err = t.store.ListTasks(models.TaskFilter{Owner: rc.GitHubUsername, Status: status})
	} else {
		tasks, err = t.store.StandupWindow(rc.GitHubUsername, daysBack)
	}
	if err != nil {
		return "", fmt.Errorf("listing tasks: %w", err)
	}

	rc.CollectedTasks = tasks

	emit(t.events, EventWorkLogQueried, map[string]any{
		"task_count": len(tasks),
		"days_back":  daysBack,
		"owner":      rc.GitHubUsername,
		"date":       t.today(),
	})

	if len(tasks) == 0 {
		return "No tasks found. Log a task by telling me what you're working on.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d task(s):\n", len(tasks))
	for _, task := range tasks {
		tagsStr := ""
		if len(task.Tags) > 0 {
			tagsStr = fmt.Sprintf(" [%s]", strings.Join(task.Tags, ", "))
		}
		fmt.Fprintf(&b, "  %s %s%s (id: %s)\n", statusIcon(task.Status), task.Title, tagsStr, task.ID)
		for _, u := range task.Updates {
			fmt.Fprintf(&b, "      - %s\n", u.Note)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// WorkLog returns the formatted work log for standup generation. This is
// high-signal context: tasks the user explicitly logged.
func (t *TaskTools) WorkLog(rc *RunContext, daysBack int) (string, error) {
	if daysBack <= 0 {
		daysBack = rc.DaysBack
	}

	tasks, err := t.store.StandupWindow(rc.GitHubUsername, daysBack)
	if err != nil {
		return "", fmt.Errorf("building work log: %w", err)
	}

	rc.CollectedTasks = tasks

	emit(t.events, EventWorkLogQueried, map[string]any{
		"task_count": len(tasks),
		"days_back":  daysBack,
		"owner":      rc.GitHubUsername,
		"date":       t.today(),
	})

	if len(tasks) == 0 {
		return "No tasks logged for this period.", nil
	}

	var b strings.Builder
	b.WriteString("=== USER WORK LOG ===\n\n")
	for _, task := range tasks {
		fmt.Fprintf(&b, "* %s [%s]\n", task.Title, statusLabel(task.Status))
		if len(task.Tags) > 0 {
			fmt.Fprintf(&b, "  Tags: %s\n", strings.Join(task.Tags, ", "))
		}
		if len(task.RelatedPRs) > 0 {
			fmt.Fprintf(&b, "  PRs: %s\n", strings.Join(task.RelatedPRs, ", "))
		}
		if len(task.RelatedIssues) > 0 {
			fmt.Fprintf(&b, "  Issues: %s\n", strings.Join(task.RelatedIssues, ", "))
		}
		for _, u := range task.Updates {
			fmt.Fprintf(&b, "  - %s\n", u.Note)
		}
		b.WriteString("\n")
	}
	b.WriteString("Use these tasks as primary context for the standup summary.")
	return b.String(), nil
}

// LinkTask associates a task with a GitHub PR and/or issue reference.
func (t *TaskTools) LinkTask(rc *RunContext, taskID, pr, issue string) (string, error) {
	if pr == "" && issue == "" {
		return "Provide a PR or issue reference to link.", nil
	}

	existing, err := t.store.GetTask(taskID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("Task %s not found.", taskID), nil
		}
		return "", fmt.Errorf("linking task %s: %w", taskID, err)
	}

	var linked []string
	if pr != "" {
		if _, err := t.store.LinkReference(taskID, models.ReferencePR, pr); err != nil {
			return "", fmt.Errorf("linking PR to task %s: %w", taskID, err)
		}
		linked = append(linked, fmt.Sprintf("PR %s", pr))
	}
	if issue != "" {
		if _, err := t.store.LinkReference(taskID, models.ReferenceIssue, issue); err != nil {
			return "", fmt.Errorf("linking issue to task %s: %w", taskID, err)
		}
		linked = append(linked, fmt.Sprintf("issue %s", issue))
	}

	return fmt.Sprintf("Linked %s to task %q", strings.Join(linked, ", "), existing.Title), nil
}

func (t *TaskTools) today() string {
	return t.now().Format("2006-01-02")
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*10) / 10
}

func statusIcon(s models.TaskStatus) string {
	switch s {
	case models.StatusInProgress:
		return "[active]"
	case models.StatusCompleted:
		return "[done]"
	case models.StatusAbandoned:
		return "[dropped]"
	default:
		return ""
	}
}

func statusLabel(s models.TaskStatus) string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func emptyTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
