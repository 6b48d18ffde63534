// Package internal provides the App struct that wires all components of
// the standup agent together and initializes the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andrewm4894/github-standup-agent/internal/cli"
	"github.com/andrewm4894/github-standup-agent/internal/core"
	"github.com/andrewm4894/github-standup-agent/internal/integration"
	"github.com/andrewm4894/github-standup-agent/internal/observability"
	"github.com/andrewm4894/github-standup-agent/internal/storage"
	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// App holds all service dependencies for the standup agent.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Storage layer
	TaskStore storage.TaskStoreManager
	History   storage.HistoryManager

	// Core services
	TaskTools *core.TaskTools
	Publisher *core.Publisher
	Prompts   *core.PromptCache

	// Integration services
	GitHub integration.GitHubClient
	Slack  integration.SlackClient

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components. basePath is the data directory
// holding the databases, config, and event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	app.Config = cfg

	// --- Storage layer ---
	app.TaskStore, err = storage.NewTaskStore(filepath.Join(basePath, "tasks.db"))
	if err != nil {
		return nil, fmt.Errorf("opening task store: %w", err)
	}
	app.History, err = storage.NewHistoryStore(filepath.Join(basePath, "standup_history.db"))
	if err != nil {
		// Non-fatal: standup generation works without history.
		app.History = nil
	}

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".standup_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable telemetry if the log can't be created.
		app.EventLog = nil
	}
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Integration services ---
	app.GitHub = integration.NewGitHubClient()
	if token := app.ConfigMgr.SlackToken(); token != "" {
		app.Slack = integration.NewSlackClient(token)
	}

	// --- Core services ---
	app.Prompts = core.NewPromptCache(filepath.Join(basePath, "prompts"))
	app.TaskTools = core.NewTaskTools(&workLogStoreAdapter{store: app.TaskStore}, evtAdapter)

	var poster core.ChatPoster
	if app.Slack != nil {
		poster = app.Slack
	}
	app.Publisher = core.NewPublisher(poster, cfg.SlackChannel, evtAdapter)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.ConfigMgr = app.ConfigMgr
	cli.TaskTools = app.TaskTools
	cli.TaskStore = app.TaskStore
	cli.Publisher = app.Publisher
	cli.History = app.History
	cli.GitHub = app.GitHub
	cli.Slack = app.Slack
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.Prompts = app.Prompts

	return app, nil
}

// Close releases resources held by the App.
func (a *App) Close() error {
	var errs []error
	if a.TaskStore != nil {
		errs = append(errs, a.TaskStore.Close())
	}
	if a.History != nil {
		errs = append(errs, a.History.Close())
	}
	if a.EventLog != nil {
		errs = append(errs, a.EventLog.Close())
	}
	return errors.Join(errs...)
}

// ResolveBasePath determines the data directory. STANDUP_HOME wins;
// otherwise the XDG-style default under the user's config directory.
func ResolveBasePath() string {
	if home := os.Getenv("STANDUP_HOME"); home != "" {
		return home
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".standup-agent"
	}
	return filepath.Join(configDir, "standup-agent")
}

// workLogStoreAdapter adapts storage.TaskStoreManager to core.WorkLogStore,
// translating the storage sentinel into the one core understands.
type workLogStoreAdapter struct {
	store storage.TaskStoreManager
}

func (a *workLogStoreAdapter) CreateTask(owner, title string, tags []string) (*models.Task, error) {
	return a.store.CreateTask(owner, title, tags)
}

func (a *workLogStoreAdapter) UpdateStatus(taskID string, status models.TaskStatus) (*models.Task, error) {
	task, err := a.store.UpdateStatus(taskID, status)
	return task, translateNotFound(err)
}

func (a *workLogStoreAdapter) AddUpdate(taskID, note string) (*models.TaskUpdate, error) {
	update, err := a.store.AddUpdate(taskID, note)
	return update, translateNotFound(err)
}

func (a *workLogStoreAdapter) GetTask(taskID string) (*models.Task, error) {
	task, err := a.store.GetTask(taskID)
	return task, translateNotFound(err)
}

func (a *workLogStoreAdapter) ListTasks(filter models.TaskFilter) ([]*models.Task, error) {
	return a.store.ListTasks(filter)
}

func (a *workLogStoreAdapter) StandupWindow(owner string, daysBack int) ([]*models.Task, error) {
	return a.store.StandupWindow(owner, daysBack)
}

func (a *workLogStoreAdapter) LinkReference(taskID string, kind models.ReferenceKind, ref string) (bool, error) {
	return a.store.LinkReference(taskID, kind, ref)
}

func translateNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrTaskNotFound) {
		return core.ErrTaskNotFound
	}
	return err
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{Type: eventType, Data: data})
}
