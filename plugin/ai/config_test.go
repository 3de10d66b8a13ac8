package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/arisu/internal/profile"
)

func TestNewConfigFromProfile(t *testing.T) {
	prof := &profile.Profile{
		AIBaseURL:        "https://api.groq.com/openai/v1",
		AIAPIKey:         "groq-key",
		AIModel:          "llama-3.1-70b-versatile",
		AITemperature:    0.8,
		AITokenBudget:    500,
		AIMaxAttempts:    3,
		AIBackoffBase:    time.Second,
		AIBackoffMax:     8 * time.Second,
		AIAttemptTimeout: 30 * time.Second,
	}

	cfg := NewConfigFromProfile(prof)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "groq-key", cfg.LLM.APIKey)
	assert.Equal(t, "llama-3.1-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.BaseURL)
	assert.Equal(t, float32(0.8), cfg.LLM.Temperature)
	assert.Equal(t, 500, cfg.TokenBudget)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Retry.AttemptTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Enabled:     true,
			LLM:         LLMConfig{Model: "m", APIKey: "k"},
			Retry:       RetryConfig{MaxAttempts: 3},
			TokenBudget: 500,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.LLM.APIKey = "" }, false},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }, true},
		{"missing model", func(c *Config) { c.LLM.Model = "" }, true},
		{"zero budget", func(c *Config) { c.TokenBudget = 0 }, true},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
