package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrewm4894/github-standup-agent/internal/core"
	"github.com/andrewm4894/github-standup-agent/internal/observability"
	"github.com/andrewm4894/github-standup-agent/internal/storage"
	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("STANDUP_SLACK_BOT_TOKEN", "")

	app, err := NewApp(t.TempDir())
	if err != nil {
		t.Fatalf("creating app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewApp_Wiring(t *testing.T) {
	app := newTestApp(t)

	if app.Config == nil || app.ConfigMgr == nil {
		t.Fatal("config not wired")
	}
	if app.TaskStore == nil || app.TaskTools == nil {
		t.Fatal("task layer not wired")
	}
	if app.History == nil {
		t.Fatal("history store not wired")
	}
	if app.EventLog == nil || app.MetricsCalc == nil {
		t.Fatal("observability not wired")
	}
	if app.GitHub == nil || app.Publisher == nil || app.Prompts == nil {
		t.Fatal("services not wired")
	}
	if app.Slack != nil {
		t.Error("slack client must stay nil without a token")
	}
}

func TestNewApp_SlackEnabledByToken(t *testing.T) {
	t.Setenv("STANDUP_SLACK_BOT_TOKEN", "xoxb-test")

	app, err := NewApp(t.TempDir())
	if err != nil {
		t.Fatalf("creating app: %v", err)
	}
	defer func() { _ = app.Close() }()

	if app.Slack == nil {
		t.Error("slack client must be created when a token is set")
	}
}

func TestNewApp_CreatesDataFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STANDUP_SLACK_BOT_TOKEN", "")

	app, err := NewApp(dir)
	if err != nil {
		t.Fatalf("creating app: %v", err)
	}
	defer func() { _ = app.Close() }()

	for _, name := range []string{"tasks.db", "standup_history.db", ".standup_events.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestNewApp_BadConfigFails(t *testing.T) {
	dir := t.TempDir()
	content := "default_days_back: 0\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewApp(dir); err == nil {
		t.Fatal("expected an invalid config to fail startup")
	}
}

func TestWorkLogStoreAdapter_TranslatesNotFound(t *testing.T) {
	app := newTestApp(t)

	adapter := &workLogStoreAdapter{store: app.TaskStore}

	if _, err := adapter.GetTask("missing12345"); !errors.Is(err, core.ErrTaskNotFound) {
		t.Errorf("GetTask: expected the core sentinel, got %v", err)
	}
	if _, err := adapter.UpdateStatus("missing12345", models.StatusCompleted); !errors.Is(err, core.ErrTaskNotFound) {
		t.Errorf("UpdateStatus: expected the core sentinel, got %v", err)
	}
	if _, err := adapter.AddUpdate("missing12345", "note"); !errors.Is(err, core.ErrTaskNotFound) {
		t.Errorf("AddUpdate: expected the core sentinel, got %v", err)
	}

	// The storage sentinel must not leak through the adapter.
	if _, err := adapter.GetTask("missing12345"); errors.Is(err, storage.ErrTaskNotFound) {
		t.Error("storage sentinel leaked through the adapter")
	}
}

func TestEventLogAdapter(t *testing.T) {
	app := newTestApp(t)

	adapter := &eventLogAdapter{log: app.EventLog}
	if err := adapter.LogEvent("task_created", map[string]any{"task_id": "abc"}); err != nil {
		t.Fatalf("logging event: %v", err)
	}

	events, err := app.EventLog.Read(observability.EventFilter{Type: "task_created"})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Data["task_id"] != "abc" {
		t.Errorf("event not recorded: %v", events)
	}
	if events[0].Time.IsZero() {
		t.Error("event time not stamped")
	}
}

func TestTaskFlowThroughApp(t *testing.T) {
	app := newTestApp(t)
	rc := core.NewRunContext("octocat", 1)

	msg, err := app.TaskTools.LogTask(rc, "wire it up", nil)
	if err != nil {
		t.Fatalf("logging task: %v", err)
	}
	if msg == "" {
		t.Fatal("expected a confirmation message")
	}

	listing, err := app.TaskTools.ListTasks(rc, "", 7)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(rc.CollectedTasks) != 1 {
		t.Fatalf("expected the task visible through the store, got %d (%s)", len(rc.CollectedTasks), listing)
	}
}

func TestResolveBasePath(t *testing.T) {
	t.Setenv("STANDUP_HOME", "/tmp/standup-test-home")
	if got := ResolveBasePath(); got != "/tmp/standup-test-home" {
		t.Errorf("STANDUP_HOME must win, got %q", got)
	}

	t.Setenv("STANDUP_HOME", "")
	got := ResolveBasePath()
	if got == "" {
		t.Fatal("expected a fallback path")
	}
	if filepath.Base(got) != "standup-agent" && got != ".standup-agent" {
		t.Errorf("unexpected default path %q", got)
	}
}

func TestAppClose(t *testing.T) {
	t.Setenv("STANDUP_SLACK_BOT_TOKEN", "")
	app, err := NewApp(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("closing: %v", err)
	}
}
