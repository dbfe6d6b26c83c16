package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/20uf/tidy-ur-spotify/internal/shared"
	tu "github.com/20uf/tidy-ur-spotify/internal/testing"
)

func TestNewProvider(t *testing.T) {
	t.Run("OpenAI", func(t *testing.T) {
		p, err := NewProvider(shared.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "test_key"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if p.ID() != "openai" || p.Model() != "gpt-4o-mini" {
			t.Errorf("unexpected provider %s/%s", p.ID(), p.Model())
		}
	})

	t.Run("Anthropic", func(t *testing.T) {
		p, err := NewProvider(shared.LLMConfig{Provider: "anthropic", APIKey: "test_key"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if p.ID() != "anthropic" {
			t.Errorf("expected anthropic, got %s", p.ID())
		}
		if p.Model() != "claude-3-haiku-20240307" {
			t.Errorf("expected default model, got %s", p.Model())
		}
	})

	t.Run("Defaults To OpenAI", func(t *testing.T) {
		p, err := NewProvider(shared.LLMConfig{APIKey: "test_key"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if p.ID() != DefaultProviderID {
			t.Errorf("expected %s, got %s", DefaultProviderID, p.ID())
		}
		if p.Model() != "gpt-4o-mini" {
			t.Errorf("expected default model, got %s", p.Model())
		}
	})

	t.Run("Missing API Key", func(t *testing.T) {
		_, err := NewProvider(shared.LLMConfig{Provider: "openai"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Unknown Provider", func(t *testing.T) {
		_, err := NewProvider(shared.LLMConfig{Provider: "llama-at-home", APIKey: "test_key"})
		if !errors.Is(err, shared.ErrUnknownProvider) {
			t.Errorf("expected ErrUnknownProvider, got %v", err)
		}
	})
}

func TestOpenAIProvider(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		var gotAuth, gotBody string
		provider := &OpenAIProvider{
			apiKey: "test_key",
			model:  "gpt-4o-mini",
			httpClient: &http.Client{Transport: tu.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
				gotAuth = req.Header.Get("Authorization")
				data, _ := io.ReadAll(req.Body)
				gotBody = string(data)
				return jsonResponse(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"[]"}}]}`), nil
			})},
		}

		text, err := provider.Complete(context.Background(), "system prompt", "user prompt")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if text != "[]" {
			t.Errorf("expected completion text, got %q", text)
		}
		if gotAuth != "Bearer test_key" {
			t.Errorf("expected bearer auth, got %q", gotAuth)
		}
		if !strings.Contains(gotBody, `"role":"system"`) || !strings.Contains(gotBody, "user prompt") {
			t.Errorf("expected both messages in payload, got %s", gotBody)
		}
	})

	t.Run("API Error", func(t *testing.T) {
		provider := &OpenAIProvider{
			apiKey:     "test_key",
			model:      "gpt-4o-mini",
			httpClient: &http.Client{Transport: tu.NewMockRoundTripper(jsonResponse(http.StatusTooManyRequests, `{}`), nil)},
		}

		_, err := provider.Complete(context.Background(), "s", "u")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Empty Choices", func(t *testing.T) {
		provider := &OpenAIProvider{
			apiKey:     "test_key",
			model:      "gpt-4o-mini",
			httpClient: &http.Client{Transport: tu.NewMockRoundTripper(jsonResponse(http.StatusOK, `{"choices":[]}`), nil)},
		}

		_, err := provider.Complete(context.Background(), "s", "u")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for empty completion, got %v", err)
		}
	})
}

func TestAnthropicProvider(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		var gotKey, gotVersion, gotBody string
		provider := &AnthropicProvider{
			apiKey: "test_key",
			model:  "claude-3-haiku-20240307",
			httpClient: &http.Client{Transport: tu.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
				gotKey = req.Header.Get("x-api-key")
				gotVersion = req.Header.Get("anthropic-version")
				data, _ := io.ReadAll(req.Body)
				gotBody = string(data)
				return jsonResponse(http.StatusOK, `{"content":[{"type":"text","text":"classified"}]}`), nil
			})},
		}

		text, err := provider.Complete(context.Background(), "system prompt", "user prompt")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if text != "classified" {
			t.Errorf("expected completion text, got %q", text)
		}
		if gotKey != "test_key" || gotVersion != anthropicVersion {
			t.Errorf("expected api headers, got key=%q version=%q", gotKey, gotVersion)
		}
		if !strings.Contains(gotBody, `"system":"system prompt"`) {
			t.Errorf("expected top-level system field, got %s", gotBody)
		}
	})

	t.Run("Network Error", func(t *testing.T) {
		provider := &AnthropicProvider{
			apiKey:     "test_key",
			model:      "claude-3-haiku-20240307",
			httpClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))},
		}

		_, err := provider.Complete(context.Background(), "s", "u")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
