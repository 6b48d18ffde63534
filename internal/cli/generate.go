package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrewm4894/github-standup-agent/internal/agent"
	"github.com/andrewm4894/github-standup-agent/internal/core"
)

var (
	generateDaysBack    int
	generateWithHistory bool
	generateNoGitHub    bool
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"run"},
	Short:   "Generate a standup summary from your recent activity",
	Long: `Generate a standup summary.

The summary combines your work log with GitHub activity (PRs, issues,
commits, reviews) from the lookback window. When an agent runner is
configured the summary is written by the LLM; otherwise a deterministic
template rendering is used.

The result is saved to standup history and printed. Publish it with
"standup publish".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskTools == nil {
			return fmt.Errorf("task tools not initialized")
		}

		daysBack := generateDaysBack
		if daysBack <= 0 && Config != nil {
			daysBack = Config.DefaultDaysBack
		}
		if daysBack <= 0 {
			daysBack = 1
		}

		rc := newRunContext(daysBack)
		rc.WithHistory = generateWithHistory
		if Config != nil {
			rc.StyleInstructions = Config.StyleInstructions
		}
		if rc.StyleInstructions == "" {
			rc.StyleInstructions = core.LoadStyleInstructions(BasePath)
		}

		if generateWithHistory && History != nil {
			recent, err := History.Recent(3)
			if err != nil {
				return fmt.Errorf("loading standup history: %w", err)
			}
			rc.RecentStandups = recent
		}

		ctx := context.Background()
		summary, err := buildStandup(ctx, rc)
		if err != nil {
			return err
		}
		rc.CurrentStandup = summary

		if History != nil {
			if _, err := History.Save(summary, collectedData(rc)); err != nil {
				return fmt.Errorf("saving standup: %w", err)
			}
			if Config != nil && Config.HistoryDaysToKeep > 0 {
				_, _ = History.Prune(Config.HistoryDaysToKeep)
			}
		}

		fmt.Println(summary)
		return nil
	},
}

// buildStandup produces the standup text, via the agent runner when one is
// configured and deterministically otherwise.
func buildStandup(ctx context.Context, rc *core.RunContext) (string, error) {
	if AgentRunner != nil {
		model := ""
		if Config != nil {
			model = Config.CoordinatorModel
		}
		def := agent.NewStandupAgent(agent.Dependencies{
			Tasks:     TaskTools,
			GitHub:    GitHub,
			Slack:     Slack,
			Publisher: Publisher,
			History:   History,
			Prompts:   Prompts,
		}, rc, model)

		summary, err := AgentRunner.Run(ctx, def, rc, "Generate my standup for today.")
		if err != nil {
			return "", fmt.Errorf("running standup agent: %w", err)
		}
		return summary, nil
	}

	// Deterministic path: gather data directly, then render.
	if _, err := TaskTools.ListTasks(rc, "", rc.DaysBack); err != nil {
		return "", fmt.Errorf("loading work log: %w", err)
	}

	if GitHub != nil && !generateNoGitHub && rc.GitHubUsername != "" {
		if prs, err := GitHub.SearchPRs(ctx, rc.GitHubUsername, rc.DaysBack, true, true); err == nil {
			rc.CollectedPRs = prs
		}
		if issues, err := GitHub.SearchIssues(ctx, rc.GitHubUsername, rc.DaysBack, true, true); err == nil {
			rc.CollectedIssues = issues
		}
		if commits, err := GitHub.SearchCommits(ctx, rc.GitHubUsername, rc.DaysBack); err == nil {
			rc.CollectedCommits = commits
		}
		if reviews, err := GitHub.SearchReviews(ctx, rc.GitHubUsername, rc.DaysBack, true, true); err == nil {
			rc.CollectedReviews = reviews
		}
	}

	summary, err := core.RenderStandup(rc)
	if err != nil {
		return "", fmt.Errorf("rendering standup: %w", err)
	}
	return summary, nil
}

// collectedData snapshots the gathered activity for history storage.
func collectedData(rc *core.RunContext) map[string]any {
	return map[string]any{
		"prs":     rc.CollectedPRs,
		"issues":  rc.CollectedIssues,
		"commits": rc.CollectedCommits,
		"reviews": rc.CollectedReviews,
		"tasks":   rc.CollectedTasks,
	}
}

func init() {
	generateCmd.Flags().IntVar(&generateDaysBack, "days-back", 0, "Lookback window in days (default from config)")
	generateCmd.Flags().BoolVar(&generateWithHistory, "with-history", false, "Include recent standups for continuity")
	generateCmd.Flags().BoolVar(&generateNoGitHub, "no-github", false, "Skip GitHub activity queries")
	rootCmd.AddCommand(generateCmd)
}
