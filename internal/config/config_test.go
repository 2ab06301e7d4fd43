package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("ATRIUM_TEST_TOKEN", "xoxb-secret")

	path := writeConfig(t, `{
		"server": {"port": ${ATRIUM_TEST_PORT:8080}, "log_level": "debug"},
		"gateway": {"slack": {"enabled": true, "bot_token": "${ATRIUM_TEST_TOKEN}"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Gateway.Slack.BotToken != "xoxb-secret" {
		t.Errorf("bot token = %q, want env value", cfg.Gateway.Slack.BotToken)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("ATRIUM_TEST_PORT", "9090")

	path := writeConfig(t, `{"server": {"port": ${ATRIUM_TEST_PORT:8080}}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090 from env", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadLLMAndOrchestratorSections(t *testing.T) {
	path := writeConfig(t, `{
		"llm": [
			{"id": "gemini-main", "type": "gemini", "api_key": "${ATRIUM_TEST_KEY:}", "model": "gemini-2.0-flash"},
			{"id": "openai-backup", "type": "openai", "api_key": "k2"}
		],
		"orchestrator": {"default_agent": "slack", "agent_timeout_sec": 20, "debug": true}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.LLM) != 2 || cfg.LLM[0].ID != "gemini-main" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM[0].APIKey != "" {
		t.Errorf("unset env with empty default should resolve empty, got %q", cfg.LLM[0].APIKey)
	}
	if cfg.Orchestrator.AgentTimeoutSec != 20 || !cfg.Orchestrator.Debug {
		t.Errorf("orchestrator = %+v", cfg.Orchestrator)
	}
}
