// OpenAI chat completions implementation of [Provider]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

const openaiChatURL = "https://api.openai.com/v1/chat/completions"

// OpenAIProvider calls the chat completions endpoint with a system+user message pair.
type OpenAIProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) ID() string    { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

// Complete sends one prompt pair and returns the raw completion text.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	payload := openaiRequest{
		Model: p.model,
		Messages: []openaiMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: llmMaxTokens,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiChatURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: openai status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var parsed openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", shared.ErrAPIRequest)
	}

	return parsed.Choices[0].Message.Content, nil
}
