package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andrewm4894/github-standup-agent/internal/core"
	"github.com/andrewm4894/github-standup-agent/internal/integration"
	"github.com/andrewm4894/github-standup-agent/internal/storage"
	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// Dependencies carries the services the toolsets close over.
type Dependencies struct {
	Tasks     *core.TaskTools
	GitHub    integration.GitHubClient
	Slack     integration.SlackClient
	Publisher *core.Publisher
	History   storage.HistoryManager
	Prompts   *core.PromptCache
}

// NewStandupAgent builds the coordinator definition: every toolset plus
// the coordinator instructions compiled for the current run.
func NewStandupAgent(deps Dependencies, rc *core.RunContext, model string) Definition {
	instructions := deps.Prompts.Load("coordinator", core.CoordinatorInstructions)

	var tools []Tool
	tools = append(tools, TaskToolset(deps.Tasks)...)
	tools = append(tools, GitHubToolset(deps.GitHub)...)
	tools = append(tools, SlackToolset(deps.Slack, deps.Publisher)...)
	tools = append(tools, HistoryToolset(deps.History)...)

	return Definition{
		Name:         "Standup Agent",
		Model:        model,
		Instructions: core.BuildInstructions(instructions, core.SnapshotOf(rc)),
		Tools:        tools,
	}
}

// NewDataGatherer builds the data-gathering definition: read-only tools
// over GitHub activity and the work log.
func NewDataGatherer(deps Dependencies, rc *core.RunContext, model string) Definition {
	instructions := deps.Prompts.Load("data_gatherer", core.DataGathererInstructions)

	tools := GitHubToolset(deps.GitHub)
	tools = append(tools, TaskToolset(deps.Tasks)...)

	return Definition{
		Name:         "Data Gatherer",
		Model:        model,
		Instructions: core.BuildInstructions(instructions, core.SnapshotOf(rc)),
		Tools:        tools,
	}
}

// NewSummarizer builds the summarizer definition. It carries no tools;
// the collected context is rendered into its input.
func NewSummarizer(deps Dependencies, rc *core.RunContext, model string) Definition {
	instructions := deps.Prompts.Load("summarizer", core.SummarizerInstructions)

	return Definition{
		Name:         "Summarizer",
		Model:        model,
		Instructions: core.BuildInstructions(instructions, core.SnapshotOf(rc)),
	}
}

// TaskToolset exposes the work log operations as agent tools.
func TaskToolset(tasks *core.TaskTools) []Tool {
	return []Tool{
		{
			Name:        "log_task",
			Description: "Log a new task the user is working on. Detect intent from phrases like 'working on X' or 'picking up Y'.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				title := argString(args, "title")
				if title == "" {
					return "A task title is required.", nil
				}
				return tasks.LogTask(rc, title, argStrings(args, "tags"))
			},
		},
		{
			Name:        "update_task",
			Description: "Add a progress note to a task, optionally changing its status (in_progress, completed, abandoned).",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				return tasks.UpdateTask(rc, argString(args, "task_id"), argString(args, "note"),
					models.TaskStatus(argString(args, "status")))
			},
		},
		{
			Name:        "complete_task",
			Description: "Mark a task as completed. Use when the user says they finished something.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				return tasks.CompleteTask(rc, argString(args, "task_id"), argString(args, "note"))
			},
		},
		{
			Name:        "list_tasks",
			Description: "Show tracked tasks, filtered by status or bounded by a lookback window.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				return tasks.ListTasks(rc, models.TaskStatus(argString(args, "status")),
					argInt(args, "days_back", 7))
			},
		},
		{
			Name:        "get_work_log",
			Description: "Get the high-signal work log for standup generation.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				return tasks.WorkLog(rc, argInt(args, "days_back", rc.DaysBack))
			},
		},
		{
			Name:        "link_task",
			Description: "Associate a pull request or issue reference with a task.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				return tasks.LinkTask(rc, argString(args, "task_id"),
					argString(args, "pr"), argString(args, "issue"))
			},
		},
	}
}

// GitHubToolset exposes activity queries as agent tools. Results are stored
// on the run context for the summarizer and returned as formatted text for
// the model.
func GitHubToolset(gh integration.GitHubClient) []Tool {
	return []Tool{
		{
			Name:        "get_my_prs",
			Description: "Fetch pull requests authored by the user across all repositories, open and recently merged.",
			Execute: func(ctx context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				daysBack := argInt(args, "days_back", rc.DaysBack)
				prs, err := gh.SearchPRs(ctx, rc.GitHubUsername, daysBack,
					argBool(args, "include_open", true), argBool(args, "include_merged", true))
				if err != nil {
					return "", err
				}
				rc.CollectedPRs = prs
				return formatPRs(prs), nil
			},
		},
		{
			Name:        "get_my_issues",
			Description: "Fetch issues assigned to or created by the user across all repositories.",
			Execute: func(ctx context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				daysBack := argInt(args, "days_back", 7)
				issues, err := gh.SearchIssues(ctx, rc.GitHubUsername, daysBack,
					argBool(args, "include_assigned", true), argBool(args, "include_created", true))
				if err != nil {
					return "", err
				}
				rc.CollectedIssues = issues
				return formatIssues(issues), nil
			},
		},
		{
			Name:        "get_my_commits",
			Description: "Fetch commits authored by the user across all repositories.",
			Execute: func(ctx context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				commits, err := gh.SearchCommits(ctx, rc.GitHubUsername, argInt(args, "days_back", rc.DaysBack))
				if err != nil {
					return "", err
				}
				rc.CollectedCommits = commits
				return formatCommits(commits), nil
			},
		},
		{
			Name:        "get_my_reviews",
			Description: "Fetch code review activity: PRs the user reviewed and review activity on the user's PRs.",
			Execute: func(ctx context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				reviews, err := gh.SearchReviews(ctx, rc.GitHubUsername, argInt(args, "days_back", 7),
					argBool(args, "include_given", true), argBool(args, "include_received", true))
				if err != nil {
					return "", err
				}
				rc.CollectedReviews = reviews
				return formatReviews(reviews), nil
			},
		},
	}
}

// SlackToolset exposes the publish protocol and team-channel reads.
func SlackToolset(slack integration.SlackClient, publisher *core.Publisher) []Tool {
	return []Tool{
		{
			Name:        "set_slack_thread",
			Description: "Find today's standup thread in the team channel and record it for publishing.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				if slack == nil {
					return "Slack is not configured. Set STANDUP_SLACK_BOT_TOKEN and slack_channel.", nil
				}
				channel := argString(args, "channel")
				if channel == "" {
					channel = rc.SlackChannelID
				}
				if channel == "" {
					channel = publisher.Channel()
				}
				id, err := slack.ResolveChannelID(channel)
				if err != nil {
					return slack.Remedy(err), nil
				}
				rc.SlackChannelID = id

				threadTS, err := slack.FindStandupThread(id, argInt(args, "days_back", 1))
				if err != nil {
					return slack.Remedy(err), nil
				}
				if threadTS == "" {
					return "No standup thread found in the channel. Ask the user for a thread timestamp.", nil
				}
				rc.SlackThreadTS = threadTS
				return fmt.Sprintf("Standup thread set: %s", threadTS), nil
			},
		},
		{
			Name:        "get_team_slack_standups",
			Description: "Read recent messages from the team standup channel for context on what teammates posted.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				if slack == nil {
					return "Slack is not configured.", nil
				}
				channel := argString(args, "channel")
				if channel == "" {
					channel = rc.SlackChannelID
				}
				if channel == "" {
					channel = publisher.Channel()
				}
				id, err := slack.ResolveChannelID(channel)
				if err != nil {
					return slack.Remedy(err), nil
				}
				rc.SlackChannelID = id
				messages, err := slack.RecentMessages(id, time.Time{}, argInt(args, "limit", 20))
				if err != nil {
					return slack.Remedy(err), nil
				}
				if len(messages) == 0 {
					return "No recent messages in the channel.", nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Recent channel messages (%d):\n", len(messages))
				for _, m := range messages {
					fmt.Fprintf(&b, "- %s\n", m.Text)
				}
				return b.String(), nil
			},
		},
		{
			Name:        "publish_standup_to_slack",
			Description: "Publish the standup to the team thread. Unconfirmed calls return a preview; the user must confirm before anything is posted.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				result := publisher.Publish(rc, argString(args, "text"), argBool(args, "confirmed", false))
				return result.Message, nil
			},
		},
		{
			Name:        "confirm_slack_publish",
			Description: "Record the user's confirmation to publish the previewed standup.",
			Execute: func(_ context.Context, rc *core.RunContext, _ map[string]any) (string, error) {
				return publisher.Confirm(rc), nil
			},
		},
	}
}

// HistoryToolset exposes standup history reads and writes.
func HistoryToolset(history storage.HistoryManager) []Tool {
	return []Tool{
		{
			Name:        "get_recent_standups",
			Description: "Return recently generated standups, newest first, for continuity with previous updates.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				if history == nil {
					return "Standup history is not available.", nil
				}
				entries, err := history.Recent(argInt(args, "limit", 3))
				if err != nil {
					return "", fmt.Errorf("reading standup history: %w", err)
				}
				rc.RecentStandups = entries
				if len(entries) == 0 {
					return "No previous standups recorded.", nil
				}
				var b strings.Builder
				for _, e := range entries {
					fmt.Fprintf(&b, "--- %s ---\n%s\n\n", e.Date, e.Summary)
				}
				return b.String(), nil
			},
		},
		{
			Name:        "save_standup",
			Description: "Save the current standup summary to history.",
			Execute: func(_ context.Context, rc *core.RunContext, args map[string]any) (string, error) {
				if history == nil {
					return "Standup history is not available.", nil
				}
				summary := argString(args, "summary")
				if summary == "" {
					summary = rc.CurrentStandup
				}
				if summary == "" {
					return "Nothing to save. Generate a standup first.", nil
				}
				entry, err := history.Save(summary, rawData(rc))
				if err != nil {
					return "", fmt.Errorf("saving standup: %w", err)
				}
				return fmt.Sprintf("Saved standup for %s (id: %s)", entry.Date, entry.ID), nil
			},
		},
	}
}

// rawData snapshots the collected activity for history storage.
func rawData(rc *core.RunContext) map[string]any {
	return map[string]any{
		"prs":     rc.CollectedPRs,
		"issues":  rc.CollectedIssues,
		"commits": rc.CollectedCommits,
		"reviews": rc.CollectedReviews,
		"tasks":   rc.CollectedTasks,
	}
}

// --- Formatting helpers ---

func formatPRs(prs []models.PullRequest) string {
	if len(prs) == 0 {
		return "No pull requests found in the specified time range."
	}

	byRepo := map[string][]models.PullRequest{}
	for _, pr := range prs {
		byRepo[pr.Repository] = append(byRepo[pr.Repository], pr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d pull request(s) across %d repo(s):\n", len(prs), len(byRepo))
	for _, repo := range sortedKeys(byRepo) {
		fmt.Fprintf(&b, "\n%s:\n", repo)
		for _, pr := range byRepo[repo] {
			draft := ""
			if pr.IsDraft {
				draft = " (DRAFT)"
			}
			fmt.Fprintf(&b, "  #%d: %s%s\n    Status: %s | URL: %s\n",
				pr.Number, pr.Title, draft, pr.Status, pr.URL)
		}
	}
	return b.String()
}

func formatIssues(issues []models.Issue) string {
	if len(issues) == 0 {
		return "No issues found in the specified time range."
	}

	byRepo := map[string][]models.Issue{}
	for _, is := range issues {
		byRepo[is.Repository] = append(byRepo[is.Repository], is)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d issue(s) across %d repo(s):\n", len(issues), len(byRepo))
	for _, repo := range sortedKeys(byRepo) {
		fmt.Fprintf(&b, "\n%s:\n", repo)
		for _, is := range byRepo[repo] {
			labels := strings.Join(is.Labels, ", ")
			if labels == "" {
				labels = "no labels"
			}
			fmt.Fprintf(&b, "  #%d: %s (%s)\n    State: %s | Labels: %s\n    URL: %s\n",
				is.Number, is.Title, is.Source, is.State, labels, is.URL)
		}
	}
	return b.String()
}

func formatCommits(commits []models.Commit) string {
	if len(commits) == 0 {
		return "No commits found in the specified time range."
	}

	byRepo := map[string][]models.Commit{}
	for _, c := range commits {
		byRepo[c.Repository] = append(byRepo[c.Repository], c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d commit(s) across %d repo(s):\n", len(commits), len(byRepo))
	for _, repo := range sortedKeys(byRepo) {
		fmt.Fprintf(&b, "\n%s:\n", repo)
		for _, c := range byRepo[repo] {
			sha := c.SHA
			if len(sha) > 7 {
				sha = sha[:7]
			}
			fmt.Fprintf(&b, "  %s %s\n", sha, c.Message)
		}
	}
	return b.String()
}

func formatReviews(reviews []models.Review) string {
	if len(reviews) == 0 {
		return "No code review activity found."
	}

	var given, received []models.Review
	for _, r := range reviews {
		if r.Type == "given" {
			given = append(given, r)
		} else {
			received = append(received, r)
		}
	}

	var b strings.Builder
	b.WriteString("Code review activity:\n")
	if len(given) > 0 {
		fmt.Fprintf(&b, "\nReviews given (%d PRs):\n", len(given))
		for _, r := range given {
			fmt.Fprintf(&b, "  #%d: %s\n    by @%s | %s\n", r.Number, r.Title, r.Author, r.State)
		}
	}
	if len(received) > 0 {
		fmt.Fprintf(&b, "\nReviews received (%d PRs):\n", len(received))
		for _, r := range received {
			fmt.Fprintf(&b, "  #%d: %s\n    %d comment(s) | %s\n", r.Number, r.Title, r.Comments, r.State)
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Argument helpers ---

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return fallback
}

func argBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

func argStrings(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
