package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ashwch/determinal/internal/config"
	"github.com/go-resty/resty/v2"
)

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type OllamaAdapter struct {
	client       *resty.Client
	model        string
	probeTimeout time.Duration
	listTimeout  time.Duration
}

// NewOllamaAdapter falls back to ollama.model and then ollama.fallback_model
// when model is empty.
func NewOllamaAdapter(cfg config.Config, model string) (Adapter, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = cfg.Ollama.Model
	}
	if model == "" {
		model = cfg.Ollama.FallbackModel
	}
	return newOllamaAdapter(
		cfg.Ollama.BaseURL,
		model,
		time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second,
		time.Duration(cfg.Ollama.ProbeTimeoutMS)*time.Millisecond,
		time.Duration(cfg.Ollama.ListTimeoutMS)*time.Millisecond,
	), nil
}

func newOllamaAdapter(baseURL, model string, timeout, probeTimeout, listTimeout time.Duration) *OllamaAdapter {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	return &OllamaAdapter{
		client:       client,
		model:        model,
		probeTimeout: probeTimeout,
		listTimeout:  listTimeout,
	}
}

func (a *OllamaAdapter) Name() string {
	return string(KindOllama)
}

func (a *OllamaAdapter) HealthCheck(ctx context.Context) error {
	probeCtx, cancel := timeoutContext(ctx, a.probeTimeout)
	defer cancel()

	resp, err := a.client.R().SetContext(probeCtx).Get("/api/tags")
	if err != nil {
		return fmt.Errorf("ollama not reachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ollama probe returned status %d", resp.StatusCode())
	}
	return nil
}

func (a *OllamaAdapter) ListModels(ctx context.Context) ([]string, error) {
	listCtx, cancel := timeoutContext(ctx, a.listTimeout)
	defer cancel()

	resp, err := a.client.R().SetContext(listCtx).Get("/api/tags")
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", ErrTransport, err)
	}
	if resp.IsError() {
		return nil, transportError(a.Name(), "status %d", resp.StatusCode())
	}
	var parsed tagsResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, transportError(a.Name(), "malformed model list: %v", err)
	}
	names := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		if name := strings.TrimSpace(m.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (a *OllamaAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{
		Model:   a.model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: 0},
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %v", ErrTransport, err)
	}
	if resp.IsError() {
		return "", transportError(a.Name(), "status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	var parsed generateResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", transportError(a.Name(), "malformed response: %v", err)
	}
	if parsed.Response == nil {
		return "", transportError(a.Name(), "response field missing")
	}
	return *parsed.Response, nil
}
