package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Orchestrator.TurnTimeout != 120*time.Second {
		t.Errorf("turn timeout = %v, want 120s", cfg.Orchestrator.TurnTimeout)
	}
	if cfg.Orchestrator.TaskTimeout != 45*time.Second {
		t.Errorf("task timeout = %v, want 45s", cfg.Orchestrator.TaskTimeout)
	}
	if cfg.Orchestrator.MaxToolIterations != 8 {
		t.Errorf("max tool iterations = %d, want 8", cfg.Orchestrator.MaxToolIterations)
	}
	if cfg.Server.ChatTurnsPerMinute != 10 {
		t.Errorf("chat turns per minute = %d, want 10", cfg.Server.ChatTurnsPerMinute)
	}
	if cfg.Session.Language != "en-US" {
		t.Errorf("language = %q, want en-US", cfg.Session.Language)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
anthropic:
  model: claude-sonnet-4-20250514
server:
  listen_addr: "0.0.0.0:9000"
  chat_turns_per_minute: 5
orchestrator:
  turn_timeout: 60s
  max_tool_iterations: 4
session:
  language: de-DE
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", cfg.Anthropic.Model)
	}
	if cfg.Server.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("listen addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.ChatTurnsPerMinute != 5 {
		t.Errorf("chat turns per minute = %d, want 5", cfg.Server.ChatTurnsPerMinute)
	}
	if cfg.Orchestrator.TurnTimeout != time.Minute {
		t.Errorf("turn timeout = %v, want 1m", cfg.Orchestrator.TurnTimeout)
	}
	if cfg.Orchestrator.MaxToolIterations != 4 {
		t.Errorf("max tool iterations = %d, want 4", cfg.Orchestrator.MaxToolIterations)
	}
	// Unset keys keep their defaults.
	if cfg.Orchestrator.TaskTimeout != 45*time.Second {
		t.Errorf("task timeout = %v, want the 45s default", cfg.Orchestrator.TaskTimeout)
	}
	if cfg.Session.Language != "de-DE" {
		t.Errorf("language = %q, want de-DE", cfg.Session.Language)
	}
}

func TestLoadFromPath_ExpandsAPIKeyEnv(t *testing.T) {
	t.Setenv("PLANFORGE_TEST_KEY", "sk-test-123")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "anthropic:\n  api_key: ${PLANFORGE_TEST_KEY}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-test-123" {
		t.Errorf("api key = %q, want the expanded env value", cfg.Anthropic.APIKey)
	}
}

func TestDataDir_PrefersExplicitSetting(t *testing.T) {
	cfg := Default()
	cfg.Session.DataDir = "/tmp/planforge-test"

	if got := cfg.DataDir(); got != "/tmp/planforge-test" {
		t.Errorf("DataDir = %q, want the explicit setting", got)
	}
}

func TestDataDir_UsesXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	cfg := Default()
	want := filepath.Join("/xdg/data", "planforge")
	if got := cfg.DataDir(); got != want {
		t.Errorf("DataDir = %q, want %q", got, want)
	}
}
