package models

// Config holds the standup agent configuration, loaded from config.yaml
// in the base path and STANDUP_* environment variables. Secrets (the
// Slack bot token) are never written to the config file.
type Config struct {
	// GitHub settings. Username is auto-detected from the gh CLI when empty.
	GitHubUsername string `yaml:"github_username,omitempty"`

	// Slack settings. SlackChannel is a channel name (without #) or a
	// channel ID.
	SlackChannel string `yaml:"slack_channel,omitempty"`

	// Agent settings.
	DefaultDaysBack   int     `yaml:"default_days_back"`
	DefaultOutput     string  `yaml:"default_output"` // stdout, clipboard
	CoordinatorModel  string  `yaml:"coordinator_model"`
	DataGathererModel string  `yaml:"data_gatherer_model"`
	SummarizerModel   string  `yaml:"summarizer_model"`
	Temperature       float64 `yaml:"temperature"`

	// Repos to include/exclude (empty = all).
	IncludeRepos []string `yaml:"include_repos,omitempty"`
	ExcludeRepos []string `yaml:"exclude_repos,omitempty"`

	// History settings.
	HistoryDaysToKeep int `yaml:"history_days_to_keep"`

	// Short style customization for the summarizer; a style.md file in
	// the base path takes precedence for detailed customization.
	StyleInstructions string `yaml:"style_instructions,omitempty"`
}
