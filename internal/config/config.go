package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
// The desk, admin and agent binaries share it; each validates the part it needs.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	HTTPAddr            string        `mapstructure:"http_addr"`
	AgentURL            string        `mapstructure:"news_agent_url"`
	AgentTimeoutSeconds int64         `mapstructure:"agent_timeout_seconds"`
	AgentTimeout        time.Duration `mapstructure:"-"`
	PublishersFile      string        `mapstructure:"publishers_file"`

	DeskURL            string        `mapstructure:"desk_url"`
	DeskTimeoutSeconds int64         `mapstructure:"desk_timeout_seconds"`
	DeskTimeout        time.Duration `mapstructure:"-"`

	AgentAddr         string        `mapstructure:"agent_addr"`
	LLMProvider       string        `mapstructure:"llm_provider"`
	LLMModel          string        `mapstructure:"llm_model"`
	LLMAPIKey         string        `mapstructure:"llm_api_key"`
	OpenAIAPIKey      string        `mapstructure:"openai_api_key"`
	LLMBaseURL        string        `mapstructure:"llm_base_url"`
	LLMTemperature    float64       `mapstructure:"llm_temperature"`
	LLMMaxTokens      int64         `mapstructure:"llm_max_tokens"`
	LLMTimeoutSeconds int64         `mapstructure:"llm_timeout_seconds"`
	LLMTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-news-desk")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("news_agent_url", "")
	v.SetDefault("agent_timeout_seconds", 180)
	v.SetDefault("publishers_file", "")
	v.SetDefault("desk_url", "http://localhost:8080/api/generate")
	v.SetDefault("desk_timeout_seconds", 200)
	v.SetDefault("agent_addr", ":8081")
	v.SetDefault("llm_provider", "openai")
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("llm_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("llm_base_url", "")
	v.SetDefault("llm_temperature", 0.7)
	v.SetDefault("llm_max_tokens", 5000)
	v.SetDefault("llm_timeout_seconds", 180)

	// Every key needs a default: AutomaticEnv only resolves keys viper already knows.
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.AgentTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid agent_timeout_seconds (must be positive seconds)")
	}
	if cfg.DeskTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid desk_timeout_seconds (must be positive seconds)")
	}
	if cfg.LLMTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid llm_timeout_seconds (must be positive seconds)")
	}
	cfg.AgentTimeout = time.Duration(cfg.AgentTimeoutSeconds) * time.Second
	cfg.DeskTimeout = time.Duration(cfg.DeskTimeoutSeconds) * time.Second
	cfg.LLMTimeout = time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	cfg.AgentURL = strings.TrimSpace(cfg.AgentURL)
	cfg.DeskURL = strings.TrimSpace(cfg.DeskURL)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = cfg.OpenAIAPIKey
	}

	return &cfg, nil
}

// ValidateDesk checks the settings the proxy server cannot run without.
func (c *Config) ValidateDesk() error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	if c.AgentURL == "" {
		return errors.New("news_agent_url is required")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http_addr is required")
	}
	return nil
}

// ValidateAdmin checks the settings the admin client needs.
func (c *Config) ValidateAdmin() error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	if c.DeskURL == "" {
		return errors.New("desk_url is required")
	}
	return nil
}

// ValidateAgent checks the settings the agent service needs.
func (c *Config) ValidateAgent() error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	if strings.TrimSpace(c.AgentAddr) == "" {
		return errors.New("agent_addr is required")
	}
	switch c.LLMProvider {
	case "mock":
	case "openai":
		if c.LLMAPIKey == "" {
			return errors.New("llm_api_key (or openai_api_key) is required for the openai provider")
		}
		if strings.TrimSpace(c.LLMModel) == "" {
			return errors.New("llm_model is required")
		}
	default:
		return fmt.Errorf("unsupported llm_provider %q", c.LLMProvider)
	}
	return nil
}

// Redacted returns a copy safe to log, with API keys masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.LLMAPIKey != "" {
		out.LLMAPIKey = "***"
	}
	if out.OpenAIAPIKey != "" {
		out.OpenAIAPIKey = "***"
	}
	return out
}
