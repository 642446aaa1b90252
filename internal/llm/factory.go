package llm

import (
	"fmt"
	"strings"
	"time"
)

// FactoryConfig selects and configures a Completer implementation.
type FactoryConfig struct {
	// Provider selects the implementation: "openai" or "anthropic".
	Provider    string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	OpenAI      OpenAISettings
	Anthropic   AnthropicSettings
}

// OpenAISettings holds OpenAI-specific factory settings.
type OpenAISettings struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicSettings holds Anthropic-specific factory settings.
type AnthropicSettings struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewCompleter creates the Completer named by cfg.Provider.
func NewCompleter(cfg FactoryConfig) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			BaseURL:     cfg.OpenAI.BaseURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
		})
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:      cfg.Anthropic.APIKey,
			Model:       cfg.Anthropic.Model,
			BaseURL:     cfg.Anthropic.BaseURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
