// Package config handles configuration loading and management for Planforge.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Planforge.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Server       ServerConfig       `mapstructure:"server"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Session      SessionConfig      `mapstructure:"session"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	// ChatTurnsPerMinute limits orchestrated turns per session.
	ChatTurnsPerMinute int `mapstructure:"chat_turns_per_minute"`
	// PlanGenerationsPer5Min limits full plan generations per session.
	PlanGenerationsPer5Min int `mapstructure:"plan_generations_per_5m"`
}

// OrchestratorConfig holds turn execution settings.
type OrchestratorConfig struct {
	// TurnTimeout bounds a whole orchestrated turn.
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	// TaskTimeout bounds each parallel agent task.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// MaxToolIterations caps each agent's tool loop.
	MaxToolIterations int `mapstructure:"max_tool_iterations"`
	// RetryBackoff is the pause before the single model-call retry.
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// CatalogConfig points at the phase and agent catalog documents.
// Empty paths use the built-in starter catalog.
type CatalogConfig struct {
	PhasesPath string `mapstructure:"phases_path"`
	AgentsPath string `mapstructure:"agents_path"`
}

// SessionConfig holds conversation defaults.
type SessionConfig struct {
	// Language is the default BCP 47 language tag for new sessions.
	Language string `mapstructure:"language"`
	// DataDir is where the database, logs and signal files live.
	// Empty uses the XDG data directory.
	DataDir string `mapstructure:"data_dir"`
}

// DataDir resolves the effective data directory.
func (c *Config) DataDir() string {
	if c.Session.DataDir != "" {
		return c.Session.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "planforge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".planforge")
	}
	return filepath.Join(home, ".local", "share", "planforge")
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (PLANFORGE_*, ANTHROPIC_API_KEY)
// 2. Project config (.planforge.yaml in current directory or parent)
// 3. User config (~/.config/planforge/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Project config takes precedence over user config.
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PLANFORGE")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "PLANFORGE_MODEL")
	v.BindEnv("server.listen_addr", "PLANFORGE_LISTEN_ADDR")
	v.BindEnv("session.data_dir", "PLANFORGE_DATA_DIR")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("server.listen_addr", cfg.Server.ListenAddr)
	v.Set("server.chat_turns_per_minute", cfg.Server.ChatTurnsPerMinute)
	v.Set("server.plan_generations_per_5m", cfg.Server.PlanGenerationsPer5Min)
	v.Set("orchestrator.turn_timeout", cfg.Orchestrator.TurnTimeout.String())
	v.Set("orchestrator.task_timeout", cfg.Orchestrator.TaskTimeout.String())
	v.Set("orchestrator.max_tool_iterations", cfg.Orchestrator.MaxToolIterations)
	v.Set("orchestrator.retry_backoff", cfg.Orchestrator.RetryBackoff.String())
	v.Set("catalog.phases_path", cfg.Catalog.PhasesPath)
	v.Set("catalog.agents_path", cfg.Catalog.AgentsPath)
	v.Set("session.language", cfg.Session.Language)
	v.Set("session.data_dir", cfg.Session.DataDir)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("server.listen_addr", "127.0.0.1:8432")
	v.SetDefault("server.chat_turns_per_minute", 10)
	v.SetDefault("server.plan_generations_per_5m", 3)

	v.SetDefault("orchestrator.turn_timeout", "120s")
	v.SetDefault("orchestrator.task_timeout", "45s")
	v.SetDefault("orchestrator.max_tool_iterations", 8)
	v.SetDefault("orchestrator.retry_backoff", "2s")

	v.SetDefault("catalog.phases_path", "")
	v.SetDefault("catalog.agents_path", "")

	v.SetDefault("session.language", "en-US")
	v.SetDefault("session.data_dir", "")
}

// getUserConfigDir returns the XDG config directory for Planforge.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "planforge")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "planforge")
	}
	return filepath.Join(home, ".config", "planforge")
}

// findProjectConfig searches for .planforge.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".planforge.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:             "127.0.0.1:8432",
			ChatTurnsPerMinute:     10,
			PlanGenerationsPer5Min: 3,
		},
		Orchestrator: OrchestratorConfig{
			TurnTimeout:       120 * time.Second,
			TaskTimeout:       45 * time.Second,
			MaxToolIterations: 8,
			RetryBackoff:      2 * time.Second,
		},
		Session: SessionConfig{
			Language: "en-US",
		},
	}
}
