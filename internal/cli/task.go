package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrewm4894/github-standup-agent/internal/core"
	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// newRunContext builds a run context for one command invocation. The
// username comes from config when set, otherwise from the gh CLI.
func newRunContext(daysBack int) *core.RunContext {
	username := ""
	if Config != nil {
		username = Config.GitHubUsername
	}
	if username == "" && GitHub != nil {
		if login, err := GitHub.CurrentUsername(context.Background()); err == nil {
			username = login
		}
	}
	return core.NewRunContext(username, daysBack)
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the work log (log, update, complete, list, link, clear)",
	Long: `Track what you're working on.

Tasks logged here feed standup generation: anything updated within the
lookback window, plus everything still in progress, shows up in the
generated summary.`,
}

var taskLogTags []string

var taskLogCmd = &cobra.Command{
	Use:   "log <title>",
	Short: "Log a new task you're working on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskTools == nil {
			return fmt.Errorf("task tools not initialized")
		}

		msg, err := TaskTools.LogTask(newRunContext(1), args[0], taskLogTags)
		if err != nil {
			return fmt.Errorf("logging task: %w", err)
		}
		fmt.Println(msg)
		return nil
	},
}

var taskUpdateStatus string

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id> <note>",
	Short: "Add a progress note to a task, optionally changing its status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskTools == nil {
			return fmt.Errorf("task tools not initialized")
		}

		status := models.TaskStatus(taskUpdateStatus)
		if taskUpdateStatus != "" && !models.ValidStatuses[status] {
			return fmt.Errorf("invalid status %q: must be one of in_progress, completed, abandoned", taskUpdateStatus)
		}

		msg, err := TaskTools.UpdateTask(newRunContext(1), args[0], args[1], status)
		if err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		fmt.Println(msg)
		return nil
	},
}

var taskCompleteNote string

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskTools == nil {
			return fmt.Errorf("task tools not initialized")
		}

		msg, err := TaskTools.CompleteTask(newRunContext(1), args[0], taskCompleteNote)
		if err != nil {
			return fmt.Errorf("completing task: %w", err)
		}
		fmt.Println(msg)
		return nil
	},
}

var (
	taskListStatus   string
	taskListDaysBack int
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show tracked tasks",
	Long: `Show tracked tasks.

With --status the list is filtered to that status. Without it, the list
covers the standup window: tasks updated in the last --days-back days
plus everything still in progress.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskTools == nil {
			return fmt.Errorf("task tools not initialized")
		}

		status := models.TaskStatus(taskListStatus)
		if taskListStatus != "" && !models.ValidStatuses[status] {
			return fmt.Errorf("invalid status %q: must be one of in_progress, completed, abandoned", taskListStatus)
		}

		msg, err := TaskTools.ListTasks(newRunContext(taskListDaysBack), status, taskListDaysBack)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		fmt.Println(msg)
		return nil
	},
}

var (
	taskLinkPR    string
	taskLinkIssue string
)

var taskLinkCmd = &cobra.Command{
	Use:   "link <task-id>",
	Short: "Associate a PR or issue reference with a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskTools == nil {
			return fmt.Errorf("task tools not initialized")
		}
		if taskLinkPR == "" && taskLinkIssue == "" {
			return fmt.Errorf("provide --pr or --issue")
		}

		msg, err := TaskTools.LinkTask(newRunContext(1), args[0], taskLinkPR, taskLinkIssue)
		if err != nil {
			return fmt.Errorf("linking task: %w", err)
		}
		fmt.Println(msg)
		return nil
	},
}

var taskClearForce bool

var taskClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all tracked tasks and their updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskStore == nil {
			return fmt.Errorf("task store not initialized")
		}
		if !taskClearForce {
			return fmt.Errorf("this deletes the entire work log; pass --force to confirm")
		}

		count, err := TaskStore.ClearAll()
		if err != nil {
			return fmt.Errorf("clearing tasks: %w", err)
		}
		fmt.Printf("Deleted %d task(s).\n", count)
		return nil
	},
}

func init() {
	taskLogCmd.Flags().StringSliceVar(&taskLogTags, "tags", nil, "Labels such as a project or area name")
	taskUpdateCmd.Flags().StringVar(&taskUpdateStatus, "status", "", "New status (in_progress, completed, abandoned)")
	taskCompleteCmd.Flags().StringVar(&taskCompleteNote, "note", "", "Final note recorded before completion")
	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "Filter by status")
	taskListCmd.Flags().IntVar(&taskListDaysBack, "days-back", 7, "Lookback window in days")
	taskLinkCmd.Flags().StringVar(&taskLinkPR, "pr", "", "Pull request URL or number")
	taskLinkCmd.Flags().StringVar(&taskLinkIssue, "issue", "", "Issue URL or number")
	taskClearCmd.Flags().BoolVar(&taskClearForce, "force", false, "Confirm deletion")

	taskCmd.AddCommand(taskLogCmd, taskUpdateCmd, taskCompleteCmd, taskListCmd, taskLinkCmd, taskClearCmd)
	rootCmd.AddCommand(taskCmd)
}
