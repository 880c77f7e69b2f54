package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.AgentTimeout != 180*time.Second {
		t.Fatalf("AgentTimeout = %s", cfg.AgentTimeout)
	}
	if cfg.DeskURL != "http://localhost:8080/api/generate" {
		t.Fatalf("DeskURL = %q", cfg.DeskURL)
	}
	if err := cfg.ValidateDesk(); err == nil {
		t.Fatalf("expected ValidateDesk to require news_agent_url")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("NEWS_AGENT_URL", " https://agent.example.com/generate ")
	t.Setenv("AGENT_TIMEOUT_SECONDS", "30")
	t.Setenv("LLM_PROVIDER", "Mock")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AgentURL != "https://agent.example.com/generate" {
		t.Fatalf("AgentURL = %q", cfg.AgentURL)
	}
	if cfg.AgentTimeout != 30*time.Second {
		t.Fatalf("AgentTimeout = %s", cfg.AgentTimeout)
	}
	if cfg.LLMProvider != "mock" {
		t.Fatalf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.LLMAPIKey != "sk-test" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q", cfg.LLMAPIKey)
	}
	if err := cfg.ValidateDesk(); err != nil {
		t.Fatalf("ValidateDesk: %v", err)
	}
	if err := cfg.ValidateAgent(); err != nil {
		t.Fatalf("ValidateAgent: %v", err)
	}
	if got := cfg.Redacted().LLMAPIKey; got != "***" {
		t.Fatalf("Redacted LLMAPIKey = %q", got)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("DESK_TIMEOUT_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero desk timeout")
	}
}

func TestValidateAgentRejectsUnknownProvider(t *testing.T) {
	cfg := &Config{AgentAddr: ":8081", LLMProvider: "crystal-ball"}
	if err := cfg.ValidateAgent(); err == nil {
		t.Fatalf("expected unsupported provider error")
	}

	cfg = &Config{AgentAddr: ":8081", LLMProvider: "openai", LLMModel: "gpt-4o-mini"}
	if err := cfg.ValidateAgent(); err == nil {
		t.Fatalf("expected missing api key error")
	}
}
