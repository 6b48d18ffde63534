package cli

import (
	"github.com/andrewm4894/github-standup-agent/internal/agent"
	"github.com/andrewm4894/github-standup-agent/internal/core"
	"github.com/andrewm4894/github-standup-agent/internal/integration"
	"github.com/andrewm4894/github-standup-agent/internal/observability"
	"github.com/andrewm4894/github-standup-agent/internal/storage"
	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	TaskTools *core.TaskTools
	TaskStore storage.TaskStoreManager
	Publisher *core.Publisher
	History   storage.HistoryManager
	GitHub    integration.GitHubClient
	Slack     integration.SlackClient

	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator

	Config    *models.Config
	ConfigMgr core.ConfigurationManager
	Prompts   *core.PromptCache

	// AgentRunner drives LLM-backed standup generation. When nil the
	// generate command falls back to deterministic rendering.
	AgentRunner agent.Runner

	// BasePath is the data directory holding the databases, config, and
	// event log.
	BasePath string
)
