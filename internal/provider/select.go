package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashwch/determinal/internal/config"
)

// Chooser asks the operator to pick one of several labelled options.
type Chooser interface {
	Choose(title string, options []string) (int, error)
}

type Availability struct {
	Kind      Kind
	Reachable bool
	Err       error
}

// Detect probes every registered backend. OpenAI is reachable when its
// credential is set; Ollama when its tags endpoint answers within the probe
// timeout.
func Detect(ctx context.Context, registry *Registry, cfg config.Config) []Availability {
	if registry == nil {
		registry = NewRegistry()
	}
	out := make([]Availability, 0, 2)
	for _, kind := range registry.Kinds() {
		adapter, err := registry.Build(Selection{Kind: kind}, cfg)
		if err == nil {
			if checker, ok := adapter.(HealthChecker); ok {
				err = checker.HealthCheck(ctx)
			}
		}
		out = append(out, Availability{Kind: kind, Reachable: err == nil, Err: err})
	}
	return out
}

// Select resolves the session backend. A backend forced through config must
// be reachable; otherwise the operator picks among reachable backends. For
// Ollama the model is then chosen from the locally installed list, falling
// back to ollama.fallback_model when the list is empty or unavailable.
func Select(ctx context.Context, registry *Registry, cfg config.Config, chooser Chooser) (Selection, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	available := Detect(ctx, registry, cfg)

	reachable := make([]Kind, 0, len(available))
	issues := make([]string, 0, len(available))
	for _, item := range available {
		if item.Reachable {
			reachable = append(reachable, item.Kind)
			continue
		}
		issues = append(issues, fmt.Sprintf("%s: %v", item.Kind, item.Err))
	}

	var kind Kind
	if cfg.Backend != "" && cfg.Backend != config.BackendAuto {
		forced, err := ParseKind(cfg.Backend)
		if err != nil {
			return Selection{}, err
		}
		if !containsKind(reachable, forced) {
			return Selection{}, fmt.Errorf("%w: %s is configured but unavailable (%s)", ErrNoBackend, forced, strings.Join(issues, "; "))
		}
		kind = forced
	} else {
		switch len(reachable) {
		case 0:
			return Selection{}, fmt.Errorf("%w (%s)", ErrNoBackend, strings.Join(issues, "; "))
		case 1:
			kind = reachable[0]
		default:
			labels := make([]string, 0, len(reachable))
			for _, k := range reachable {
				labels = append(labels, backendLabel(k, cfg))
			}
			kind = reachable[choose(chooser, "Select AI backend", labels)]
		}
	}

	switch kind {
	case KindOpenAI:
		return Selection{Kind: KindOpenAI, Model: cfg.OpenAI.Model}, nil
	case KindOllama:
		return Selection{Kind: KindOllama, Model: pickOllamaModel(ctx, registry, cfg, chooser)}, nil
	default:
		return Selection{Kind: kind}, nil
	}
}

func pickOllamaModel(ctx context.Context, registry *Registry, cfg config.Config, chooser Chooser) string {
	if cfg.Ollama.Model != "" {
		return cfg.Ollama.Model
	}
	fallback := cfg.Ollama.FallbackModel

	adapter, err := registry.Build(Selection{Kind: KindOllama, Model: fallback}, cfg)
	if err != nil {
		return fallback
	}
	lister, ok := adapter.(ModelLister)
	if !ok {
		return fallback
	}
	models, err := lister.ListModels(ctx)
	if err != nil || len(models) == 0 {
		return fallback
	}
	if len(models) == 1 {
		return models[0]
	}
	return models[choose(chooser, "Select a local model", models)]
}

// choose never fails: a missing chooser, an error or an out-of-range answer
// all select the first option.
func choose(chooser Chooser, title string, options []string) int {
	if chooser == nil || len(options) == 0 {
		return 0
	}
	idx, err := chooser.Choose(title, options)
	if err != nil || idx < 0 || idx >= len(options) {
		return 0
	}
	return idx
}

func backendLabel(kind Kind, cfg config.Config) string {
	switch kind {
	case KindOpenAI:
		return fmt.Sprintf("OpenAI (%s)", cfg.OpenAI.Model)
	case KindOllama:
		return fmt.Sprintf("Ollama (local, %s)", cfg.Ollama.BaseURL)
	default:
		return string(kind)
	}
}

func containsKind(kinds []Kind, want Kind) bool {
	for _, k := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
