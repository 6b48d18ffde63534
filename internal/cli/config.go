package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Config == nil {
			return fmt.Errorf("configuration not loaded")
		}

		data, err := yaml.Marshal(Config)
		if err != nil {
			return fmt.Errorf("formatting config: %w", err)
		}
		fmt.Print(string(data))

		if ConfigMgr != nil {
			if ConfigMgr.SlackToken() != "" {
				fmt.Println("slack_bot_token: (set via STANDUP_SLACK_BOT_TOKEN)")
			} else {
				fmt.Println("slack_bot_token: (not set)")
			}
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to disk",
	Long: `Write the effective configuration to config.yaml in the data
directory, creating a starting point for customization.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil || Config == nil {
			return fmt.Errorf("configuration not loaded")
		}

		if err := ConfigMgr.Save(Config); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Wrote config.yaml under %s\n", BasePath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
