package app

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/samvad-hq/samvad-news-desk/internal/agent"
	"github.com/samvad-hq/samvad-news-desk/internal/config"
	"github.com/samvad-hq/samvad-news-desk/internal/httpserver"
	"github.com/samvad-hq/samvad-news-desk/internal/logger"
)

// Agent is the article generation service runtime.
type Agent struct {
	cfg  *config.Config
	echo *echo.Echo
	log  logger.Logger
}

// NewAgent builds the agent runtime, choosing the LLM backend from config.
func NewAgent(cfg *config.Config, log logger.Logger) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if err := cfg.ValidateAgent(); err != nil {
		return nil, err
	}
	log = logger.Ensure(log)

	llm, err := newLLM(cfg)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	log.InfoObj("llm configured", "llm_config", map[string]any{
		"provider":        cfg.LLMProvider,
		"model":           cfg.LLMModel,
		"base_url":        cfg.LLMBaseURL,
		"temperature":     cfg.LLMTemperature,
		"max_tokens":      cfg.LLMMaxTokens,
		"timeout_seconds": int(cfg.LLMTimeout.Seconds()),
	})

	pipeline, err := agent.NewPipeline(llm, log)
	if err != nil {
		return nil, err
	}

	e := httpserver.New(log)
	agent.NewHandler(pipeline, cfg.LLMTimeout, log).Register(e)

	return &Agent{cfg: cfg, echo: e, log: log}, nil
}

func newLLM(cfg *config.Config) (agent.LLM, error) {
	switch cfg.LLMProvider {
	case "mock":
		return agent.MockLLM{}, nil
	case "openai":
		return agent.NewOpenAILLM(agent.OpenAIConfig{
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.LLMBaseURL,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			Timeout:     cfg.LLMTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

// Handler exposes the configured router, mainly for tests.
func (a *Agent) Handler() *echo.Echo { return a.echo }

// Run serves HTTP until the context is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	if a == nil || a.echo == nil {
		return fmt.Errorf("agent is not initialized")
	}
	return httpserver.Run(ctx, a.echo, a.cfg.AgentAddr, a.log)
}
