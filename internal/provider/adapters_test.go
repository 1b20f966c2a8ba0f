package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAICompleteSendsChatRequest(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body failed: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Explanation: lists files\nCommand: ls"}}]}`))
	}))
	defer server.Close()

	adapter := newOpenAIAdapter(server.URL, "sk-test", "gpt-4", "You are a shell assistant. Only suggest shell commands.", 5*time.Second)
	reply, err := adapter.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if reply != "Explanation: lists files\nCommand: ls" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", auth)
	}
	if got.Model != "gpt-4" || got.Temperature != 0 || got.Stream {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "hello" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestOpenAICompleteErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":`))
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			adapter := newOpenAIAdapter(server.URL, "sk-test", "gpt-4", "sys", 5*time.Second)
			_, err := adapter.Complete(context.Background(), "hello")
			if !errors.Is(err, ErrTransport) {
				t.Fatalf("expected transport error, got %v", err)
			}
		})
	}
}

func TestOpenAIWithoutCredentialIsUnhealthy(t *testing.T) {
	adapter := newOpenAIAdapter("http://127.0.0.1:1", "", "gpt-4", "sys", time.Second)
	if err := adapter.HealthCheck(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if _, err := adapter.Complete(context.Background(), "hi"); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected missing credential on complete, got %v", err)
	}
}

func TestOllamaCompleteSendsGenerateRequest(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body failed: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"llama3","response":"Explanation: ok\nCommand: pwd","done":true}`))
	}))
	defer server.Close()

	adapter := newOllamaAdapter(server.URL, "llama3", 5*time.Second, time.Second, 2*time.Second)
	reply, err := adapter.Complete(context.Background(), "where am i")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if reply != "Explanation: ok\nCommand: pwd" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if got.Model != "llama3" || got.Prompt != "where am i" || got.Stream {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestOllamaCompleteMissingResponseField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"done":true}`))
	}))
	defer server.Close()

	adapter := newOllamaAdapter(server.URL, "llama3", 5*time.Second, time.Second, 2*time.Second)
	if _, err := adapter.Complete(context.Background(), "x"); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestOllamaHealthAndModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":" "},{"name":"mistral"}]}`))
	}))
	defer server.Close()

	adapter := newOllamaAdapter(server.URL, "", 5*time.Second, time.Second, 2*time.Second)
	if err := adapter.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected healthy server, got %v", err)
	}
	models, err := adapter.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models failed: %v", err)
	}
	if len(models) != 2 || models[0] != "llama3:latest" || models[1] != "mistral" {
		t.Fatalf("unexpected models %v", models)
	}
}

func TestOllamaProbeTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	adapter := newOllamaAdapter(server.URL, "", 5*time.Second, 50*time.Millisecond, 50*time.Millisecond)
	started := time.Now()
	if err := adapter.HealthCheck(context.Background()); err == nil {
		t.Fatalf("expected probe to fail on slow server")
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("probe should respect its timeout, took %s", elapsed)
	}
}
