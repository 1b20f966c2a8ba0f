package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ashwch/determinal/internal/config"
	"github.com/ashwch/determinal/internal/prompt"
)

func TestServiceAskParsesReply(t *testing.T) {
	openai := &fakeAdapter{name: "openai", reply: "Explanation: sl is not a valid command.\nCommand: ls"}
	svc, err := NewService(fakeRegistry(openai, nil), config.Default(), Selection{Kind: KindOpenAI, Model: "gpt-4"}, prompt.Environment{OS: "linux", Arch: "amd64", Shell: "bash"}, nil)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}

	h, err := svc.Ask(context.Background(), "sl")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if h.Command != "ls" || h.Explanation != "sl is not a valid command." {
		t.Fatalf("unexpected hint %+v", h)
	}
	if len(openai.prompts) != 1 || !strings.Contains(openai.prompts[0], "\"sl\"") {
		t.Fatalf("expected quoted input in prompt, got %v", openai.prompts)
	}
	if strings.Contains(openai.prompts[0], "The active shell is") {
		t.Fatalf("openai prompt should not carry the local shell prefix")
	}
}

func TestServiceAskUsesLocalPromptForOllama(t *testing.T) {
	ollama := &fakeAdapter{name: "ollama", reply: "Explanation: ok"}
	svc, err := NewService(fakeRegistry(nil, ollama), config.Default(), Selection{Kind: KindOllama, Model: "llama3"}, prompt.Environment{OS: "linux", Arch: "amd64", Shell: "zsh"}, nil)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	if _, err := svc.Ask(context.Background(), "ls"); err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.HasPrefix(ollama.prompts[0], "You are a helpful shell assistant.\nThe active shell is zsh.") {
		t.Fatalf("expected local prompt prefix, got %q", ollama.prompts[0])
	}
}

func TestServiceAskWrapsTransportErrors(t *testing.T) {
	openai := &fakeAdapter{name: "openai", replyErr: transportError("openai", "status %d", 500)}
	svc, err := NewService(fakeRegistry(openai, nil), config.Default(), Selection{Kind: KindOpenAI}, prompt.Environment{}, nil)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	if _, err := svc.Ask(context.Background(), "ls"); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestNewServiceRejectsUnselected(t *testing.T) {
	if _, err := NewService(nil, config.Default(), Selection{}, prompt.Environment{}, nil); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if kind, err := ParseKind(" Local "); err != nil || kind != KindOllama {
		t.Fatalf("expected local alias for ollama, got %q %v", kind, err)
	}
	if _, err := ParseKind("claude"); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}
