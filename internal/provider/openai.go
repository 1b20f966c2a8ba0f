package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ashwch/determinal/internal/config"
	"github.com/go-resty/resty/v2"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type OpenAIAdapter struct {
	client       *resty.Client
	apiKey       string
	model        string
	systemPrompt string
}

// NewOpenAIAdapter reads the API key from the environment variable named by
// openai.api_key_env.
func NewOpenAIAdapter(cfg config.Config, model string) (Adapter, error) {
	if strings.TrimSpace(model) == "" {
		model = cfg.OpenAI.Model
	}
	apiKey := strings.TrimSpace(os.Getenv(cfg.OpenAI.APIKeyEnv))
	return newOpenAIAdapter(
		cfg.OpenAI.BaseURL,
		apiKey,
		model,
		cfg.OpenAI.SystemPrompt,
		time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second,
	), nil
}

func newOpenAIAdapter(baseURL, apiKey, model, systemPrompt string, timeout time.Duration) *OpenAIAdapter {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &OpenAIAdapter{
		client:       client,
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
	}
}

func (a *OpenAIAdapter) Name() string {
	return string(KindOpenAI)
}

func (a *OpenAIAdapter) HealthCheck(_ context.Context) error {
	if a.apiKey == "" {
		return ErrMissingCredential
	}
	return nil
}

func (a *OpenAIAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	if a.apiKey == "" {
		return "", ErrMissingCredential
	}
	body := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: a.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", ErrTransport, err)
	}
	if resp.IsError() {
		return "", transportError(a.Name(), "status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", transportError(a.Name(), "malformed response: %v", err)
	}
	if len(parsed.Choices) == 0 {
		return "", transportError(a.Name(), "response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
