package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrewm4894/github-standup-agent/internal/core"
)

var (
	publishYes     bool
	publishText    string
	publishThread  string
	publishChannel string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the latest standup to the team Slack thread",
	Long: `Publish a standup to the team's Slack standup thread.

Without --yes this prints a preview of exactly what would be posted and
where. Nothing reaches Slack until you re-run with --yes. The standup
text defaults to the most recently generated one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Publisher == nil {
			return fmt.Errorf("publisher not initialized")
		}

		rc := newRunContext(1)

		content := publishText
		if content == "" && History != nil {
			entries, err := History.Recent(1)
			if err != nil {
				return fmt.Errorf("loading standup history: %w", err)
			}
			if len(entries) > 0 {
				content = entries[0].Summary
			}
		}
		rc.CurrentStandup = content

		if publishChannel != "" {
			rc.SlackChannelID = publishChannel
		}

		rc.SlackThreadTS = publishThread
		if rc.SlackThreadTS == "" && Slack != nil {
			channel := rc.SlackChannelID
			if channel == "" && Config != nil {
				channel = Config.SlackChannel
			}
			if channel != "" {
				id, err := Slack.ResolveChannelID(channel)
				if err == nil {
					rc.SlackChannelID = id
					if ts, err := Slack.FindStandupThread(id, 1); err == nil {
						rc.SlackThreadTS = ts
					}
				}
			}
		}

		result := Publisher.Publish(rc, "", publishYes)
		fmt.Println(result.Message)

		if result.State == core.PublishPreview {
			fmt.Println("\nRe-run with --yes to post.")
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().BoolVar(&publishYes, "yes", false, "Confirm and post; without this only a preview is shown")
	publishCmd.Flags().StringVar(&publishText, "text", "", "Standup text (default: most recent generated standup)")
	publishCmd.Flags().StringVar(&publishThread, "thread", "", "Thread timestamp to reply under (default: auto-detect)")
	publishCmd.Flags().StringVar(&publishChannel, "channel", "", "Channel name or ID (default from config)")
	rootCmd.AddCommand(publishCmd)
}
