package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// ProviderInfo describes a supported LLM provider for setup screens.
type ProviderInfo struct {
	ID           string
	Name         string
	DefaultModel string
	KeysURL      string
}

// Providers lists the supported LLM providers.
var Providers = []ProviderInfo{
	{
		ID:           "openai",
		Name:         "OpenAI (GPT)",
		DefaultModel: "gpt-4o-mini",
		KeysURL:      "https://platform.openai.com/api-keys",
	},
	{
		ID:           "anthropic",
		Name:         "Anthropic",
		DefaultModel: "claude-3-haiku-20240307",
		KeysURL:      "https://console.anthropic.com",
	},
}

// DefaultProviderID is used when configuration does not name a provider.
const DefaultProviderID = "openai"

const llmMaxTokens = 2048

// NewProvider selects a [Provider] implementation from configuration.
// Selection happens exactly once at startup.
func NewProvider(cfg shared.LLMConfig) (Provider, error) {
	id := cfg.Provider
	if id == "" {
		id = DefaultProviderID
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: llm api_key not set", shared.ErrMissingCredentials)
	}

	model := cfg.Model
	if model == "" {
		for _, info := range Providers {
			if info.ID == id {
				model = info.DefaultModel
			}
		}
	}

	client := &http.Client{Timeout: 60 * time.Second}

	switch id {
	case "openai":
		return &OpenAIProvider{apiKey: cfg.APIKey, model: model, httpClient: client}, nil
	case "anthropic":
		return &AnthropicProvider{apiKey: cfg.APIKey, model: model, httpClient: client}, nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownProvider, id)
	}
}
