package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Server    ServerConfig    `mapstructure:"server"`
	Form      FormConfig      `mapstructure:"form"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DatasetConfig holds the historical price table location
type DatasetConfig struct {
	// URL is an http(s) URL, a Google Drive share link or a local file path.
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ArtifactsConfig holds the paths of the precomputed artifacts
type ArtifactsConfig struct {
	LabelMap string `mapstructure:"label_map"`
	Mappings string `mapstructure:"mappings"`
	Model    string `mapstructure:"model"`
}

// ServerConfig holds HTTP and session configuration
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	Mode           string        `mapstructure:"mode"`
	SessionCookie  string        `mapstructure:"session_cookie"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	MaxSessions    int           `mapstructure:"max_sessions"`
	RotateInterval time.Duration `mapstructure:"rotate_interval"`
}

// FormConfig holds form presentation defaults
type FormConfig struct {
	DefaultState string `mapstructure:"default_state"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is applied to the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	// PRICECAST_DATASET_URL overrides dataset.url
	v.SetEnvPrefix("PRICECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.url", "https://drive.google.com/file/d/1xubrLuhQDEr_vz1xFBxK1rKQHh1DpT7v/view?usp=sharing")
	v.SetDefault("dataset.timeout", "2m")

	// Artifact defaults
	v.SetDefault("artifacts.label_map", "artifacts/label_mapping.yaml")
	v.SetDefault("artifacts.mappings", "artifacts/mappings.yaml")
	v.SetDefault("artifacts.model", "artifacts/model_sklearn.json")

	// Server defaults
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.session_cookie", "pricecast_session")
	v.SetDefault("server.session_ttl", "30m")
	v.SetDefault("server.max_sessions", 1000)
	v.SetDefault("server.rotate_interval", "5m")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 1)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Dataset config
	if c.Dataset.URL == "" {
		return fmt.Errorf("dataset.url is required")
	}
	if c.Dataset.Timeout < 1*time.Second {
		return fmt.Errorf("dataset.timeout must be at least 1 second")
	}

	// Validate Artifacts config
	if c.Artifacts.LabelMap == "" {
		return fmt.Errorf("artifacts.label_map is required")
	}
	if c.Artifacts.Mappings == "" {
		return fmt.Errorf("artifacts.mappings is required")
	}
	if c.Artifacts.Model == "" {
		return fmt.Errorf("artifacts.model is required")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("server.mode must be one of: debug, release, test")
	}
	if c.Server.SessionCookie == "" {
		return fmt.Errorf("server.session_cookie is required")
	}
	if c.Server.SessionTTL < 1*time.Minute {
		return fmt.Errorf("server.session_ttl must be at least 1 minute")
	}
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("server.max_sessions must be at least 1")
	}
	if c.Server.RotateInterval < 1*time.Second {
		return fmt.Errorf("server.rotate_interval must be at least 1 second")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.MaxRetries < 1 {
			return fmt.Errorf("telegram.max_retries must be at least 1")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
