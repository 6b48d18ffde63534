package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

func newTestStore(t *testing.T) TaskStoreManager {
	t.Helper()
	store, err := NewTaskStore(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("creating task store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestTaskStore_CreateTask(t *testing.T) {
	store := newTestStore(t)

	task, err := store.CreateTask("octocat", "refactor the auth flow", []string{"auth"})
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}

	if len(task.ID) != 12 {
		t.Errorf("expected 12-char id, got %q", task.ID)
	}
	if task.Status != models.StatusInProgress {
		t.Errorf("expected status in_progress, got %s", task.Status)
	}
	if task.Owner != "octocat" {
		t.Errorf("expected owner octocat, got %q", task.Owner)
	}
	if len(task.Tags) != 1 || task.Tags[0] != "auth" {
		t.Errorf("expected tags [auth], got %v", task.Tags)
	}
	if task.CompletedAt != nil {
		t.Errorf("expected nil completed_at on creation, got %v", task.CompletedAt)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Errorf("expected timestamps to be set, got created=%v updated=%v", task.CreatedAt, task.UpdatedAt)
	}
}

func TestTaskStore_CreateTask_NilTags(t *testing.T) {
	store := newTestStore(t)

	task, err := store.CreateTask("", "untagged work", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}

	if task.Tags == nil {
		t.Error("expected empty slice for tags, got nil")
	}
	if len(task.Tags) != 0 {
		t.Errorf("expected no tags, got %v", task.Tags)
	}
}

func TestTaskStore_UpdateStatus(t *testing.T) {
	store := newTestStore(t)

	task, err := store.CreateTask("octocat", "billing bug", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}

	updated, err := store.UpdateStatus(task.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("updating status: %v", err)
	}

	if updated.Status != models.StatusCompleted {
		t.Errorf("expected status completed, got %s", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) && !updated.UpdatedAt.Equal(task.UpdatedAt) {
		t.Errorf("expected updated_at to advance, got %v -> %v", task.UpdatedAt, updated.UpdatedAt)
	}
}

func TestTaskStore_UpdateStatus_CompletedAtWriteOnce(t *testing.T) {
	store := newTestStore(t)

	task, err := store.CreateTask("octocat", "flaky test fix", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}

	first, err := store.UpdateStatus(task.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("completing task: %v", err)
	}

	// Revert to in_progress, then complete again. The original
	// completion time must survive both transitions.
	if _, err := store.UpdateStatus(task.ID, models.StatusInProgress); err != nil {
		t.Fatalf("reverting task: %v", err)
	}
	reverted, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("getting task: %v", err)
	}
	if reverted.CompletedAt == nil || !reverted.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("expected completed_at %v to survive revert, got %v", first.CompletedAt, reverted.CompletedAt)
	}

	second, err := store.UpdateStatus(task.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("re-completing task: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("expected completed_at %v to survive re-completion, got %v", first.CompletedAt, second.CompletedAt)
	}
}

func TestTaskStore_UpdateStatus_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdateStatus("nosuchtask12", models.StatusCompleted)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskStore_AddUpdate(t *testing.T) {
	store := newTestStore(t)

	task, err := store.CreateTask("octocat", "migration PR", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}

	update, err := store.AddUpdate(task.ID, "waiting on CI")
	if err != nil {
		t.Fatalf("adding update: %v", err)
	}
	if update.Note != "waiting on CI" {
		t.Errorf("expected note to round-trip, got %q", update.Note)
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("getting task: %v", err)
	}
	if len(got.Updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(got.Updates))
	}
	if got.Updates[0].Note != "waiting on CI" {
		t.Errorf("expected stored note, got %q", got.Updates[0].Note)
	}
	if got.UpdatedAt.Before(task.UpdatedAt) {
		t.Errorf("expected updated_at to advance after a note")
	}
}

func TestTaskStore_AddUpdate_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddUpdate("nosuchtask12", "orphan note")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskStore_GetTask_UpdatesOrdered(t *testing.T) {
	store := newTestStore(t)

	task, err := store.CreateTask("octocat", "api redesign", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}

	notes := []string{"first", "second", "third"}
	for _, n := range notes {
		if _, err := store.AddUpdate(task.ID, n); err != nil {
			t.Fatalf("adding update %q: %v", n, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("getting task: %v", err)
	}
	if len(got.Updates) != len(notes) {
		t.Fatalf("expected %d updates, got %d", len(notes), len(got.Updates))
	}
	for i, n := range notes {
		if got.Updates[i].Note != n {
			t.Errorf("update %d: expected %q, got %q", i, n, got.Updates[i].Note)
		}
	}
}

func TestTaskStore_GetTask_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetTask("nosuchtask12")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskStore_ListTasks_Filters(t *testing.T) {
	store := newTestStore(t)

	a, err := store.CreateTask("octocat", "task a", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if _, err := store.CreateTask("hubot", "task b", nil); err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if _, err := store.UpdateStatus(a.ID, models.StatusCompleted); err != nil {
		t.Fatalf("completing task: %v", err)
	}

	byOwner, err := store.ListTasks(models.TaskFilter{Owner: "hubot"})
	if err != nil {
		t.Fatalf("listing by owner: %v", err)
	}
	if len(byOwner) != 1 || byOwner[0].Title != "task b" {
		t.Errorf("expected only hubot's task, got %d tasks", len(byOwner))
	}

	byStatus, err := store.ListTasks(models.TaskFilter{Status: models.StatusCompleted})
	if err != nil {
		t.Fatalf("listing by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != a.ID {
		t.Errorf("expected only the completed task, got %d tasks", len(byStatus))
	}

	all, err := store.ListTasks(models.TaskFilter{})
	if err != nil {
		t.Fatalf("listing all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(all))
	}
}

func TestTaskStore_ListTasks_OrderedByUpdatedAtDesc(t *testing.T) {
	store := newTestStore(t)

	first, err := store.CreateTask("octocat", "older", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := store.CreateTask("octocat", "newer", nil); err != nil {
		t.Fatalf("creating task: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	// Touch the older task so it moves to the front.
	if _, err := store.AddUpdate(first.ID, "bump"); err != nil {
		t.Fatalf("adding update: %v", err)
	}

	tasks, err := store.ListTasks(models.TaskFilter{})
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != first.ID {
		t.Errorf("expected most recently touched task first, got %q", tasks[0].Title)
	}
}

func TestTaskStore_OrderingStableAcrossWholeSecondTimestamps(t *testing.T) {
	store := newTestStore(t)

	older, err := store.CreateTask("octocat", "older", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	newer, err := store.CreateTask("octocat", "newer", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}

	// A whole-second timestamp and a fractional one in the same second:
	// stored as strings, they must still order chronologically.
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	raw := store.(*sqliteTaskStore)
	if _, err := raw.db.Exec(`UPDATE tasks SET updated_at = ? WHERE id = ?`,
		base.Format(sqliteTimeFormat), older.ID); err != nil {
		t.Fatalf("backdating task: %v", err)
	}
	if _, err := raw.db.Exec(`UPDATE tasks SET updated_at = ? WHERE id = ?`,
		base.Add(300*time.Millisecond).Format(sqliteTimeFormat), newer.ID); err != nil {
		t.Fatalf("backdating task: %v", err)
	}

	tasks, err := store.ListTasks(models.TaskFilter{})
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != newer.ID {
		t.Errorf("expected the fractional-second task first, got %q", tasks[0].Title)
	}

	// A Since bound inside the same second must exclude the whole-second
	// timestamp and keep the fractional one.
	since := base.Add(100 * time.Millisecond)
	bounded, err := store.ListTasks(models.TaskFilter{Since: &since})
	if err != nil {
		t.Fatalf("listing bounded tasks: %v", err)
	}
	if len(bounded) != 1 || bounded[0].ID != newer.ID {
		t.Errorf("expected only the later task, got %d tasks", len(bounded))
	}
}

func TestTaskStore_StandupWindow_IncludesInProgressOutsideWindow(t *testing.T) {
	store := newTestStore(t)

	active, err := store.CreateTask("octocat", "long-running refactor", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	stale, err := store.CreateTask("octocat", "old finished thing", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if _, err := store.UpdateStatus(stale.ID, models.StatusCompleted); err != nil {
		t.Fatalf("completing task: %v", err)
	}

	// Age both tasks past the window. The in_progress one must still
	// appear; the completed one must not.
	old := time.Now().UTC().AddDate(0, 0, -30).Format(sqliteTimeFormat)
	raw := store.(*sqliteTaskStore)
	if _, err := raw.db.Exec(`UPDATE tasks SET updated_at = ?`, old); err != nil {
		t.Fatalf("aging tasks: %v", err)
	}

	tasks, err := store.StandupWindow("octocat", 1)
	if err != nil {
		t.Fatalf("querying standup window: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task in window, got %d", len(tasks))
	}
	if tasks[0].ID != active.ID {
		t.Errorf("expected the in_progress task, got %q", tasks[0].Title)
	}
}

func TestTaskStore_StandupWindow_OwnerFilter(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.CreateTask("octocat", "mine", nil); err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if _, err := store.CreateTask("hubot", "theirs", nil); err != nil {
		t.Fatalf("creating task: %v", err)
	}

	mine, err := store.StandupWindow("octocat", 1)
	if err != nil {
		t.Fatalf("querying standup window: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "mine" {
		t.Errorf("expected only octocat's task, got %d tasks", len(mine))
	}

	everyone, err := store.StandupWindow("", 1)
	if err != nil {
		t.Fatalf("querying standup window: %v", err)
	}
	if len(everyone) != 2 {
		t.Errorf("expected 2 tasks with no owner filter, got %d", len(everyone))
	}
}

func TestTaskStore_LinkReference(t *testing.T) {
	store := newTestStore(t)

	task, err := store.CreateTask("octocat", "linked work", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}

	linked, err := store.LinkReference(task.ID, models.ReferencePR, "org/repo#42")
	if err != nil {
		t.Fatalf("linking pr: %v", err)
	}
	if !linked {
		t.Fatal("expected linked=true for existing task")
	}

	// Linking the same reference again must not duplicate it.
	if _, err := store.LinkReference(task.ID, models.ReferencePR, "org/repo#42"); err != nil {
		t.Fatalf("re-linking pr: %v", err)
	}
	if _, err := store.LinkReference(task.ID, models.ReferenceIssue, "org/repo#7"); err != nil {
		t.Fatalf("linking issue: %v", err)
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("getting task: %v", err)
	}
	if len(got.RelatedPRs) != 1 || got.RelatedPRs[0] != "org/repo#42" {
		t.Errorf("expected deduplicated PRs, got %v", got.RelatedPRs)
	}
	if len(got.RelatedIssues) != 1 || got.RelatedIssues[0] != "org/repo#7" {
		t.Errorf("expected issue link, got %v", got.RelatedIssues)
	}
}

func TestTaskStore_LinkReference_MissingTask(t *testing.T) {
	store := newTestStore(t)

	linked, err := store.LinkReference("nosuchtask12", models.ReferencePR, "org/repo#1")
	if err != nil {
		t.Fatalf("expected no error for missing task, got %v", err)
	}
	if linked {
		t.Error("expected linked=false for missing task")
	}
}

func TestTaskStore_ClearAll(t *testing.T) {
	store := newTestStore(t)

	task, err := store.CreateTask("octocat", "doomed", nil)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if _, err := store.AddUpdate(task.ID, "a note"); err != nil {
		t.Fatalf("adding update: %v", err)
	}
	if _, err := store.CreateTask("octocat", "also doomed", nil); err != nil {
		t.Fatalf("creating task: %v", err)
	}

	count, err := store.ClearAll()
	if err != nil {
		t.Fatalf("clearing tasks: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 tasks removed, got %d", count)
	}

	remaining, err := store.ListTasks(models.TaskFilter{})
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected empty store after clear, got %d tasks", len(remaining))
	}
}

func TestTaskStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.db")

	store, err := NewTaskStore(path)
	if err != nil {
		t.Fatalf("creating task store: %v", err)
	}
	task, err := store.CreateTask("octocat", "durable work", []string{"infra"})
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	reopened, err := NewTaskStore(path)
	if err != nil {
		t.Fatalf("reopening task store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetTask(task.ID)
	if err != nil {
		t.Fatalf("getting task after reopen: %v", err)
	}
	if got.Title != "durable work" || len(got.Tags) != 1 {
		t.Errorf("expected task to survive reopen, got %+v", got)
	}
}
