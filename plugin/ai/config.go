package ai

import (
	"errors"
	"time"

	"github.com/hrygo/arisu/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM   LLMConfig
	Retry RetryConfig

	// TokenBudget caps the estimated token cost kept per conversation.
	TokenBudget int
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Model       string // llama-3.1-70b-versatile
	APIKey      string
	BaseURL     string  // https://api.groq.com/openai/v1
	Temperature float32 // default: 0.8
}

// RetryConfig bounds the completion retry loop.
type RetryConfig struct {
	MaxAttempts    int           // default: 3
	BackoffBase    time.Duration // delay after the first failure, doubled per attempt
	BackoffMax     time.Duration // cap on a single delay
	AttemptTimeout time.Duration // deadline for one completion call
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Enabled: p.IsAIEnabled(),
		LLM: LLMConfig{
			Model:       p.AIModel,
			APIKey:      p.AIAPIKey,
			BaseURL:     p.AIBaseURL,
			Temperature: p.AITemperature,
		},
		Retry: RetryConfig{
			MaxAttempts:    p.AIMaxAttempts,
			BackoffBase:    p.AIBackoffBase,
			BackoffMax:     p.AIBackoffMax,
			AttemptTimeout: p.AIAttemptTimeout,
		},
		TokenBudget: p.AITokenBudget,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	if c.TokenBudget <= 0 {
		return errors.New("token budget must be positive")
	}

	if c.Retry.MaxAttempts <= 0 {
		return errors.New("retry max attempts must be positive")
	}

	return nil
}
