package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// ConfigurationManager loads, validates, and saves the standup agent
// configuration. Values come from config.yaml in the base path with
// STANDUP_* environment variables taking precedence; secrets are read
// from the environment only.
type ConfigurationManager interface {
	Load() (*models.Config, error)
	Save(cfg *models.Config) error
	Validate(cfg *models.Config) error

	// SlackToken returns the bot token from the environment, empty when
	// Slack integration is not configured.
	SlackToken() string
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager reading
// config.yaml relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultConfig returns a Config populated with sensible defaults.
func defaultConfig() *models.Config {
	return &models.Config{
		DefaultDaysBack:   1,
		DefaultOutput:     "stdout",
		CoordinatorModel:  "gpt-5.2",
		DataGathererModel: "gpt-5.2",
		SummarizerModel:   "gpt-5.2",
		Temperature:       0.7,
		HistoryDaysToKeep: 30,
	}
}

func (cm *viperConfigManager) Load() (*models.Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("STANDUP")
	v.AutomaticEnv()

	v.SetDefault("github_username", cfg.GitHubUsername)
	v.SetDefault("slack_channel", cfg.SlackChannel)
	v.SetDefault("default_days_back", cfg.DefaultDaysBack)
	v.SetDefault("default_output", cfg.DefaultOutput)
	v.SetDefault("coordinator_model", cfg.CoordinatorModel)
	v.SetDefault("data_gatherer_model", cfg.DataGathererModel)
	v.SetDefault("summarizer_model", cfg.SummarizerModel)
	v.SetDefault("temperature", cfg.Temperature)
	v.SetDefault("history_days_to_keep", cfg.HistoryDaysToKeep)
	v.SetDefault("style_instructions", cfg.StyleInstructions)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.yaml: %w", err)
		}
		// No config file, defaults plus environment.
	}

	cfg.GitHubUsername = v.GetString("github_username")
	cfg.SlackChannel = strings.TrimPrefix(v.GetString("slack_channel"), "#")
	cfg.DefaultDaysBack = v.GetInt("default_days_back")
	cfg.DefaultOutput = v.GetString("default_output")
	cfg.CoordinatorModel = v.GetString("coordinator_model")
	cfg.DataGathererModel = v.GetString("data_gatherer_model")
	cfg.SummarizerModel = v.GetString("summarizer_model")
	cfg.Temperature = v.GetFloat64("temperature")
	cfg.HistoryDaysToKeep = v.GetInt("history_days_to_keep")
	cfg.StyleInstructions = v.GetString("style_instructions")
	cfg.IncludeRepos = v.GetStringSlice("include_repos")
	cfg.ExcludeRepos = v.GetStringSlice("exclude_repos")

	if err := cm.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cm *viperConfigManager) Save(cfg *models.Config) error {
	if err := os.MkdirAll(cm.basePath, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(cm.basePath, "config.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config.yaml: %w", err)
	}
	return nil
}

func (cm *viperConfigManager) Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.DefaultDaysBack < 1 {
		errs = append(errs, fmt.Sprintf("default_days_back must be >= 1, got %d", cfg.DefaultDaysBack))
	}
	if cfg.DefaultOutput != "stdout" && cfg.DefaultOutput != "clipboard" {
		errs = append(errs, fmt.Sprintf("default_output %q is invalid, must be stdout or clipboard", cfg.DefaultOutput))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("temperature %v is invalid, must be between 0 and 2", cfg.Temperature))
	}
	if cfg.HistoryDaysToKeep < 1 {
		errs = append(errs, fmt.Sprintf("history_days_to_keep must be >= 1, got %d", cfg.HistoryDaysToKeep))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (cm *viperConfigManager) SlackToken() string {
	return os.Getenv("STANDUP_SLACK_BOT_TOKEN")
}

// LoadStyleInstructions reads style.md, preferring a repo-local file in
// the current directory over the base path copy.
func LoadStyleInstructions(basePath string) string {
	for _, dir := range []string{".", basePath} {
		data, err := os.ReadFile(filepath.Join(dir, "style.md"))
		if err == nil {
			if s := strings.TrimSpace(string(data)); s != "" {
				return s
			}
		}
	}
	return ""
}
