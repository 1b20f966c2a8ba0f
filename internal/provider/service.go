package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashwch/determinal/internal/config"
	"github.com/ashwch/determinal/internal/hint"
	"github.com/ashwch/determinal/internal/prompt"
	"github.com/ashwch/determinal/internal/safety"
	"go.uber.org/zap"
)

// Service answers one query at a time against the backend fixed at
// construction.
type Service struct {
	selection Selection
	adapter   Adapter
	env       prompt.Environment
	timeout   time.Duration
	logger    *zap.Logger
}

func NewService(registry *Registry, cfg config.Config, sel Selection, env prompt.Environment, logger *zap.Logger) (*Service, error) {
	if sel.IsZero() {
		return nil, ErrNoBackend
	}
	if registry == nil {
		registry = NewRegistry()
	}
	adapter, err := registry.Build(sel, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		selection: sel,
		adapter:   adapter,
		env:       env,
		timeout:   queryTimeout(sel.Kind, cfg),
		logger:    logger,
	}, nil
}

func (s *Service) Selection() Selection {
	return s.selection
}

// Ask sends input to the backend and parses the reply. Errors wrap
// ErrTransport and leave the session usable.
func (s *Service) Ask(ctx context.Context, input string) (hint.Hint, error) {
	q := prompt.NewQuery(input, s.env)
	var text string
	if s.selection.Kind == KindOllama {
		text = prompt.BuildLocal(q)
	} else {
		text = prompt.Build(q)
	}

	started := time.Now()
	queryCtx, cancel := timeoutContext(ctx, s.timeout)
	reply, err := s.adapter.Complete(queryCtx, text)
	cancel()

	fields := []zap.Field{
		zap.String("backend", string(s.selection.Kind)),
		zap.String("model", s.selection.Model),
		zap.Duration("latency", time.Since(started)),
	}
	if err != nil {
		s.logger.Warn("backend query failed", append(fields, zap.Error(err))...)
		return hint.Hint{}, fmt.Errorf("ask %s: %w", s.adapter.Name(), err)
	}
	s.logger.Info("backend query answered", fields...)
	s.logger.Debug("backend exchange",
		zap.String("input", safety.RedactText(input)),
		zap.String("reply", safety.RedactText(strings.TrimSpace(reply))),
	)
	return hint.Parse(reply), nil
}

func queryTimeout(kind Kind, cfg config.Config) time.Duration {
	switch kind {
	case KindOllama:
		return time.Duration(cfg.Ollama.TimeoutSeconds) * time.Second
	default:
		return time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	}
}

func timeoutContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 120 * time.Second
	}
	return context.WithTimeout(parent, d)
}
