// Package session runs the interactive loop: each line is either run
// directly or sent to the AI backend, and the reply becomes one action.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ashwch/determinal/internal/catalog"
	"github.com/ashwch/determinal/internal/decision"
	"github.com/ashwch/determinal/internal/hint"
	"github.com/ashwch/determinal/internal/journal"
	"github.com/ashwch/determinal/internal/provider"
	"github.com/ashwch/determinal/internal/runtime"
	"github.com/ashwch/determinal/internal/ui"
	"go.uber.org/zap"
)

const KindFastPath = "fast_path"

type Asker interface {
	Ask(ctx context.Context, input string) (hint.Hint, error)
}

type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

type Prompter interface {
	SelectIndex(title, description string, options []string) (int, error)
	Confirm(title, detail string) (bool, error)
}

type Recorder interface {
	Record(ctx context.Context, turn journal.Turn) error
}

// Reselector runs backend selection again for the /backend command.
type Reselector func(ctx context.Context) (Asker, provider.Selection, error)

type Options struct {
	Asker     Asker
	Selection provider.Selection
	Runner    CommandRunner
	Prompter  Prompter
	Printer   *ui.Printer
	Recorder  Recorder
	Logger    *zap.Logger
	Engine    decision.Engine
	Known     catalog.Set
	FastPath  bool
	Reselect  Reselector
}

type Session struct {
	asker     Asker
	selection provider.Selection
	runner    CommandRunner
	prompter  Prompter
	printer   *ui.Printer
	recorder  Recorder
	logger    *zap.Logger
	engine    decision.Engine
	known     catalog.Set
	fastPath  bool
	reselect  Reselector
}

func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	printer := opts.Printer
	if printer == nil {
		printer = ui.NewPrinter(io.Discard)
	}
	return &Session{
		asker:     opts.Asker,
		selection: opts.Selection,
		runner:    opts.Runner,
		prompter:  opts.Prompter,
		printer:   printer,
		recorder:  opts.Recorder,
		logger:    logger,
		engine:    opts.Engine,
		known:     opts.Known,
		fastPath:  opts.FastPath,
		reselect:  opts.Reselect,
	}
}

// Outcome describes what one turn did.
type Outcome struct {
	Kind     string
	Command  string
	Executed bool
	Err      error
}

// Loop reads lines until exit, quit or EOF. Per-turn failures are reported
// and the loop continues.
func (s *Session) Loop(ctx context.Context, reader LineReader) error {
	s.printer.Banner(s.selection.String())
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := reader.ReadLine()
		if errors.Is(err, ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case isExit(input):
			return nil
		case input == "/help":
			s.printer.Help()
			continue
		case input == "/backend":
			s.switchBackend(ctx)
			continue
		}
		s.Turn(ctx, input)
	}
}

// isExit matches the literal words only; "EXIT" is sent on like any input.
func isExit(input string) bool {
	switch input {
	case "exit", "quit":
		return true
	default:
		return false
	}
}

func (s *Session) switchBackend(ctx context.Context) {
	if s.reselect == nil {
		s.printer.Error(errors.New("backend selection is not available"))
		return
	}
	asker, sel, err := s.reselect(ctx)
	if err != nil {
		s.printer.Error(err)
		return
	}
	s.asker = asker
	s.selection = sel
	s.logger.Info("backend switched", zap.String("backend", string(sel.Kind)), zap.String("model", sel.Model))
	s.printer.Info("backend: " + sel.String())
}

// Turn handles one non-empty input: the Fast-Path first, then the AI path
// with the same input when the Fast-Path is off, misses, or fails.
func (s *Session) Turn(ctx context.Context, input string) Outcome {
	if s.fastPath && s.known.Matches(input) {
		err := s.runner.Run(ctx, input)
		if err == nil {
			return s.finish(ctx, input, Outcome{Kind: KindFastPath, Command: input, Executed: true})
		}
		s.logger.Info("direct run failed, asking backend", zap.String("input_head", firstToken(input)), zap.Int("exit_code", runtime.ExitCode(err)), zap.Error(err))
	}

	s.printer.Thinking()
	h, err := s.asker.Ask(ctx, input)
	if err != nil {
		s.printer.Error(err)
		return s.finish(ctx, input, Outcome{Kind: "error", Err: err})
	}

	d := s.engine.Decide(input, h)
	s.logger.Debug("turn decided", zap.String("decision", d.Kind.String()), zap.Bool("valid", d.Valid), zap.Int("candidates", len(d.Candidates)))
	return s.finish(ctx, input, s.act(ctx, d))
}

func (s *Session) act(ctx context.Context, d decision.Decision) Outcome {
	out := Outcome{Kind: d.Kind.String()}
	s.printer.Explanation(d.Explanation)

	switch d.Kind {
	case decision.RunOriginal:
		out.Command = d.Command
		out.Executed = true
		out.Err = s.run(ctx, d.Command)

	case decision.RunSingle:
		s.printer.Suggestion(d.Candidates[0])
		out.Command = d.Command
		approved, err := s.prompter.Confirm("Run this command?", d.Command)
		if err != nil {
			s.logger.Warn("confirmation failed", zap.Error(err))
		}
		if !approved {
			return out
		}
		out.Executed = true
		out.Err = s.run(ctx, d.Command)

	case decision.ChooseAmong:
		s.printer.Candidates(d.Candidates)
		idx, err := s.prompter.SelectIndex("Select a command to run", d.Explanation, d.Candidates)
		if errors.Is(err, ui.ErrAborted) {
			return out
		}
		if err != nil {
			s.logger.Warn("selection failed, using first candidate", zap.Error(err))
			idx = 0
		}
		out.Command = decision.Choose(d.Candidates, idx)
		out.Executed = true
		out.Err = s.run(ctx, out.Command)

	default:
		if strings.TrimSpace(d.Explanation) == "" {
			s.printer.Info("No explanation or command was returned.")
		}
	}
	return out
}

func (s *Session) run(ctx context.Context, command string) error {
	s.printer.Running(command)
	err := s.runner.Run(ctx, command)
	if err != nil {
		s.printer.Error(fmt.Errorf("command failed: %w", err))
	}
	return err
}

func (s *Session) finish(ctx context.Context, input string, out Outcome) Outcome {
	if s.recorder == nil {
		return out
	}
	turn := journal.Turn{
		Input:    input,
		Backend:  string(s.selection.Kind),
		Model:    s.selection.Model,
		Decision: out.Kind,
		Command:  out.Command,
		Executed: out.Executed,
		ExitCode: runtime.ExitCode(out.Err),
	}
	if out.Kind == KindFastPath {
		turn.Backend, turn.Model = "", ""
	}
	if out.Err != nil {
		turn.Error = out.Err.Error()
	}
	if err := s.recorder.Record(ctx, turn); err != nil {
		s.logger.Warn("journal write failed", zap.Error(err))
	}
	return out
}

func firstToken(input string) string {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
