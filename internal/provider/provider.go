package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashwch/determinal/internal/config"
)

type Kind string

const (
	KindOpenAI Kind = "openai"
	KindOllama Kind = "ollama"
)

var (
	ErrNoBackend         = errors.New("no AI backend is reachable")
	ErrTransport         = errors.New("AI backend request failed")
	ErrMissingCredential = errors.New("missing API credential")
)

// Selection is the backend chosen for the lifetime of a session. The zero
// value means nothing has been selected yet.
type Selection struct {
	Kind  Kind
	Model string
}

func (s Selection) IsZero() bool {
	return s.Kind == ""
}

func (s Selection) String() string {
	if s.IsZero() {
		return "unselected"
	}
	if strings.TrimSpace(s.Model) == "" {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s (%s)", s.Kind, s.Model)
}

type Adapter interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

type Factory func(cfg config.Config, model string) (Adapter, error)

type Registry struct {
	factories map[Kind]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: map[Kind]Factory{}}
	r.Register(KindOpenAI, NewOpenAIAdapter)
	r.Register(KindOllama, NewOllamaAdapter)
	return r
}

func (r *Registry) Register(kind Kind, factory Factory) {
	if r.factories == nil {
		r.factories = map[Kind]Factory{}
	}
	r.factories[kind] = factory
}

func (r *Registry) Build(sel Selection, cfg config.Config) (Adapter, error) {
	factory, ok := r.factories[sel.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported backend: %q", sel.Kind)
	}
	return factory(cfg, sel.Model)
}

// Kinds returns registered backends in presentation order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.factories))
	for _, kind := range []Kind{KindOpenAI, KindOllama} {
		if _, ok := r.factories[kind]; ok {
			out = append(out, kind)
		}
	}
	for kind := range r.factories {
		if kind != KindOpenAI && kind != KindOllama {
			out = append(out, kind)
		}
	}
	return out
}

func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "openai":
		return KindOpenAI, nil
	case "ollama", "local":
		return KindOllama, nil
	default:
		return "", fmt.Errorf("unknown backend %q", value)
	}
}

func transportError(backend string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrTransport, backend, fmt.Sprintf(format, args...))
}
