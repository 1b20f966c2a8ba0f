package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	goruntime "runtime"
	"strings"

	"github.com/ashwch/determinal/internal/appdirs"
	"github.com/ashwch/determinal/internal/catalog"
	"github.com/ashwch/determinal/internal/config"
	"github.com/ashwch/determinal/internal/decision"
	"github.com/ashwch/determinal/internal/journal"
	"github.com/ashwch/determinal/internal/logging"
	"github.com/ashwch/determinal/internal/prompt"
	"github.com/ashwch/determinal/internal/provider"
	dtrt "github.com/ashwch/determinal/internal/runtime"
	"github.com/ashwch/determinal/internal/session"
	"github.com/ashwch/determinal/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const linePrompt = "determinal> "

type options struct {
	Backend    string
	Model      string
	UI         string
	NoFastPath bool
	Verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "determinal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "determinal",
		Short: "An interactive shell assistant backed by OpenAI or a local Ollama model",
		Long: `determinal reads one line at a time. Known commands run directly; anything
else, or a command that fails, is sent to the AI backend, which explains it and
suggests a corrected command to run after confirmation.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.Backend, "backend", "", "AI backend: auto, openai or ollama")
	flags.StringVar(&opts.Model, "model", "", "model name for the selected backend")
	flags.StringVar(&opts.UI, "ui", "", "prompt UI: auto, bubbletea, huh, tview or plain")
	flags.BoolVar(&opts.NoFastPath, "no-fastpath", false, "always ask the backend, even for known commands")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newConfigCmd(opts),
		newDoctorCmd(opts),
		newModelsCmd(opts),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads .env files and the config file, then applies flag
// overrides in memory. Overrides are never saved.
func loadConfig(opts *options) (config.Config, string, error) {
	config.LoadEnvFiles()
	cfg, path, err := config.LoadOrCreate()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("could not load config: %w", err)
	}
	if err := applyOverrides(&cfg, opts); err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func applyOverrides(cfg *config.Config, opts *options) error {
	changes := [][2]string{}
	if v := strings.TrimSpace(opts.Backend); v != "" {
		changes = append(changes, [2]string{"backend", v})
	}
	if v := strings.TrimSpace(opts.UI); v != "" {
		changes = append(changes, [2]string{"ui.backend", v})
	}
	if opts.NoFastPath {
		changes = append(changes, [2]string{"fastpath.enabled", "false"})
	}
	if opts.Verbose {
		changes = append(changes, [2]string{"log.level", "debug"})
	}
	for _, change := range changes {
		if err := cfg.Set(change[0], change[1]); err != nil {
			return fmt.Errorf("invalid flag value: %w", err)
		}
	}

	if model := strings.TrimSpace(opts.Model); model != "" {
		switch cfg.Backend {
		case config.BackendOpenAI:
			cfg.OpenAI.Model = model
		case config.BackendOllama:
			cfg.Ollama.Model = model
		default:
			cfg.OpenAI.Model = model
			cfg.Ollama.Model = model
		}
	}
	return nil
}

func newLogger(cfg config.Config, verbose bool) *zap.Logger {
	if _, err := appdirs.EnsureStateDir(); err != nil {
		return zap.NewNop()
	}
	path, err := appdirs.LogPath()
	if err != nil {
		return zap.NewNop()
	}
	logger, err := logging.New(path, cfg.Log.Level, verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "determinal: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

func runInteractive(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, opts.Verbose)
	defer func() { _ = logger.Sync() }()

	// Ctrl+C belongs to the foreground child; determinal itself keeps running.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
		}
	}()

	registry := provider.NewRegistry()
	prompter := ui.NewPrompter(cfg.UI.Backend)
	env := prompt.DetectEnvironment()

	connect := func(ctx context.Context, cfg config.Config) (*provider.Service, provider.Selection, error) {
		sel, err := provider.Select(ctx, registry, cfg, prompter)
		if err != nil {
			return nil, provider.Selection{}, err
		}
		svc, err := provider.NewService(registry, cfg, sel, env, logger)
		if err != nil {
			return nil, provider.Selection{}, err
		}
		return svc, sel, nil
	}

	svc, sel, err := connect(ctx, cfg)
	if err != nil {
		logger.Error("backend selection failed", zap.Error(err))
		if errors.Is(err, provider.ErrNoBackend) {
			return fmt.Errorf("%w\nset %s or start a local Ollama server at %s", err, cfg.OpenAI.APIKeyEnv, cfg.Ollama.BaseURL)
		}
		return err
	}
	logger.Info("session started", zap.String("backend", string(sel.Kind)), zap.String("model", sel.Model))

	known, err := catalog.Load(cfg.FastPath.CatalogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "determinal: %v; using bundled command catalog\n", err)
		logger.Warn("catalog override ignored", zap.Error(err))
		known, err = catalog.Bundled()
		if err != nil {
			return err
		}
	}
	shellType := catalog.DetectShellType(os.Getenv("SHELL"), os.Getenv("PSModulePath"), goruntime.GOOS)

	var recorder session.Recorder
	if cfg.Journal.Enabled {
		store, err := journal.OpenDefault()
		if err != nil {
			logger.Warn("journal unavailable", zap.Error(err))
		} else {
			defer store.Close()
			recorder = store
			logger = logger.With(zap.String("session_id", store.SessionID()))
		}
	}

	historyPath, err := appdirs.HistoryPath()
	if err != nil {
		historyPath = ""
	}

	s := session.New(session.Options{
		Asker:     svc,
		Selection: sel,
		Runner:    dtrt.NewRunner(),
		Prompter:  prompter,
		Printer:   ui.NewPrinter(os.Stdout),
		Recorder:  recorder,
		Logger:    logger,
		Engine:    decision.NewEngine(cfg.Decision.Affirmations, cfg.Decision.SingleRun),
		Known:     known.Known(shellType),
		FastPath:  cfg.FastPath.Enabled,
		Reselect: func(ctx context.Context) (session.Asker, provider.Selection, error) {
			again := cfg
			again.Backend = config.BackendAuto
			again.Ollama.Model = ""
			svc, sel, err := connect(ctx, again)
			if err != nil {
				return nil, provider.Selection{}, err
			}
			return svc, sel, nil
		},
	})
	return s.Loop(ctx, session.NewReadlineReader(linePrompt, historyPath))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
