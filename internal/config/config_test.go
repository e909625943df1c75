package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
dataset:
  url: "./data/prices.csv"
  timeout: 30s

artifacts:
  label_map: "./artifacts/label_mapping.json"
  mappings: "./artifacts/mappings.json"
  model: "./artifacts/model.json"

server:
  addr: ":9000"
  mode: "test"
  max_sessions: 50

form:
  default_state: "Kerala"

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Dataset.URL != "./data/prices.csv" {
		t.Errorf("Unexpected dataset URL: %s", cfg.Dataset.URL)
	}
	if cfg.Dataset.Timeout != 30*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.Dataset.Timeout)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.MaxSessions != 50 {
		t.Errorf("Unexpected server config: %+v", cfg.Server)
	}
	if cfg.Form.DefaultState != "Kerala" {
		t.Errorf("Unexpected default state: %s", cfg.Form.DefaultState)
	}

	// Defaults fill what the file leaves out
	if cfg.Server.SessionCookie != "pricecast_session" {
		t.Errorf("Unexpected session cookie: %s", cfg.Server.SessionCookie)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("Unexpected session TTL: %v", cfg.Server.SessionTTL)
	}
	if cfg.Telegram.MaxRetries != 1 {
		t.Errorf("Expected single telegram attempt by default, got %d", cfg.Telegram.MaxRetries)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
dataset:
  url: "./data/prices.csv"
`)
	t.Setenv("PRICECAST_DATASET_URL", "https://example.com/prices.csv")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dataset.URL != "https://example.com/prices.csv" {
		t.Errorf("Expected env override, got %s", cfg.Dataset.URL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{URL: "./prices.csv", Timeout: time.Minute},
		Artifacts: ArtifactsConfig{
			LabelMap: "label_mapping.yaml",
			Mappings: "mappings.yaml",
			Model:    "model.json",
		},
		Server: ServerConfig{
			Addr:           ":8501",
			Mode:           "release",
			SessionCookie:  "pricecast_session",
			SessionTTL:     30 * time.Minute,
			MaxSessions:    100,
			RotateInterval: time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing dataset url", func(c *Config) { c.Dataset.URL = "" }, true},
		{"short timeout", func(c *Config) { c.Dataset.Timeout = time.Millisecond }, true},
		{"missing model", func(c *Config) { c.Artifacts.Model = "" }, true},
		{"invalid server mode", func(c *Config) { c.Server.Mode = "turbo" }, true},
		{"zero max sessions", func(c *Config) { c.Server.MaxSessions = 0 }, true},
		{"missing telegram token when enabled", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, ChatID: "1", MaxRetries: 1}
		}, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
