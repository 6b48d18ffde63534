package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	standupmcp "github.com/andrewm4894/github-standup-agent/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the standup MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the standup MCP server on stdio",
	Long: `Start the MCP server on stdio transport.

The server exposes the task tracker to AI coding assistants, so tasks
get logged from natural conversation as work happens: log_task,
update_task, complete_task, list_tasks, get_work_log, link_task,
get_recent_standups.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskTools == nil {
			return fmt.Errorf("task tools not initialized")
		}

		username := ""
		if Config != nil {
			username = Config.GitHubUsername
		}
		if username == "" && GitHub != nil {
			if login, err := GitHub.CurrentUsername(context.Background()); err == nil {
				username = login
			}
		}

		srv := standupmcp.NewServer(TaskTools, History, username, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
