// Package core contains the business logic of the standup agent: the
// agent-facing task tool surface, the publish confirmation protocol,
// configuration, prompt assembly, and standup rendering.
package core

import "github.com/andrewm4894/github-standup-agent/pkg/models"

// RunContext is the per-invocation scratch space threaded through all tool
// calls within one agent run. It is never sent to the model and never
// persisted; each session owns its own instance, so no locking is needed.
type RunContext struct {
	// Request parameters.
	DaysBack    int
	WithHistory bool

	// GitHub username (auto-detected or from config).
	GitHubUsername string

	// Data collected during the run, populated by tools.
	CollectedPRs     []models.PullRequest
	CollectedIssues  []models.Issue
	CollectedCommits []models.Commit
	CollectedReviews []models.Review
	CollectedTasks   []*models.Task

	// Historical context.
	RecentStandups []*models.StandupEntry

	// The standup currently being generated or refined.
	CurrentStandup string

	// Custom style instructions loaded from config and/or style.md.
	StyleInstructions string

	// Slack state discovered during the run. ThreadTS is set by the
	// data-gathering step that finds the team standup thread; the publish
	// protocol consumes it but never discovers it.
	SlackChannelID string
	SlackThreadTS  string

	// Publish protocol state: explicit confirmation and the content
	// staged at preview time. Both are cleared after one successful
	// publish.
	PublishConfirmed bool
	StagedStandup    string
}

// NewRunContext creates a RunContext for one agent session.
func NewRunContext(username string, daysBack int) *RunContext {
	if daysBack <= 0 {
		daysBack = 1
	}
	return &RunContext{
		GitHubUsername: username,
		DaysBack:       daysBack,
	}
}
