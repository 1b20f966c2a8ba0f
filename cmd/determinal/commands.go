package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"strings"
	"text/tabwriter"

	"github.com/ashwch/determinal/internal/appdirs"
	"github.com/ashwch/determinal/internal/catalog"
	"github.com/ashwch/determinal/internal/config"
	"github.com/ashwch/determinal/internal/decision"
	"github.com/ashwch/determinal/internal/journal"
	"github.com/ashwch/determinal/internal/provider"
	dtrt "github.com/ashwch/determinal/internal/runtime"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(opts)
			if err != nil {
				return err
			}
			encoded, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("could not encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", path)
			_, err = out.Write(encoded)
			return err
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save it",
		Long:  "Change one setting and save it.\n\nKeys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flag overrides are not applied here; only the saved file changes.
			cfg, path, err := config.LoadOrCreate()
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			value, _ := cfg.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s=%s\n", strings.ToLower(strings.TrimSpace(args[0])), value)
			return nil
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List setting keys",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, key := range config.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
		},
	}

	cmd.AddCommand(show, get, set, keys)
	return cmd
}

type doctorCheck struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Status string `json:"status"`
}

func newDoctorCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check config, storage and backend reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			checks, err := doctorChecks(cmd.Context(), cfg, provider.NewRegistry())
			if err != nil {
				return err
			}
			return writeChecks(cmd.OutOrStdout(), checks, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print checks as JSON")
	return cmd
}

func doctorChecks(ctx context.Context, cfg config.Config, registry *provider.Registry) ([]doctorCheck, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfgPath, err := appdirs.ConfigFilePath()
	if err != nil {
		return nil, err
	}
	statePath, err := appdirs.StateDir()
	if err != nil {
		return nil, err
	}
	journalPath, err := appdirs.JournalPath()
	if err != nil {
		return nil, err
	}

	shellType := catalog.DetectShellType(os.Getenv("SHELL"), os.Getenv("PSModulePath"), goruntime.GOOS)
	checks := []doctorCheck{
		{Key: "os", Value: goruntime.GOOS, Status: "ok"},
		{Key: "shell", Value: shellType, Status: "ok"},
		{Key: "terminal", Value: fmt.Sprintf("interactive=%t", dtrt.IsInteractive()), Status: "ok"},
		{Key: "config_path", Value: cfgPath, Status: statusPath(cfgPath)},
		{Key: "state_dir", Value: statePath, Status: statusPath(statePath)},
	}

	journalStatus := "disabled"
	if cfg.Journal.Enabled {
		journalStatus = statusPath(journalPath)
	}
	checks = append(checks, doctorCheck{Key: "journal", Value: journalPath, Status: journalStatus})

	known, err := catalog.Load(cfg.FastPath.CatalogFile)
	if err != nil {
		checks = append(checks, doctorCheck{Key: "catalog", Value: err.Error(), Status: "error"})
	} else {
		status := "ok"
		if !cfg.FastPath.Enabled {
			status = "disabled"
		}
		checks = append(checks, doctorCheck{
			Key:    "catalog",
			Value:  fmt.Sprintf("%d commands for %s; sections=%s", known.Known(shellType).Len(), shellType, strings.Join(known.Sections(), ",")),
			Status: status,
		})
	}

	checks = append(checks, doctorCheck{
		Key:    "affirmations",
		Value:  strings.Join(decision.NewClassifier(cfg.Decision.Affirmations).Phrases(), ", "),
		Status: "ok",
	})

	for _, a := range provider.Detect(ctx, registry, cfg) {
		check := doctorCheck{Key: "backend." + string(a.Kind), Status: "ok"}
		switch a.Kind {
		case provider.KindOpenAI:
			check.Value = fmt.Sprintf("%s model=%s key=%s", cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.APIKeyEnv)
		case provider.KindOllama:
			check.Value = fmt.Sprintf("%s model=%s", cfg.Ollama.BaseURL, firstNonEmpty(cfg.Ollama.Model, cfg.Ollama.FallbackModel))
		default:
			check.Value = string(a.Kind)
		}
		if !a.Reachable {
			check.Status = "unreachable"
			if errors.Is(a.Err, provider.ErrMissingCredential) {
				check.Status = "missing_credential"
			}
		}
		checks = append(checks, check)
	}
	return checks, nil
}

func writeChecks(w io.Writer, checks []doctorCheck, asJSON bool) error {
	if asJSON {
		encoded, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Key, c.Status, c.Value)
	}
	return tw.Flush()
}

func statusPath(path string) string {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "missing"
		}
		return "error"
	}
	return "ok"
}

func newModelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models installed on the local Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			adapter, err := provider.NewRegistry().Build(provider.Selection{Kind: provider.KindOllama}, cfg)
			if err != nil {
				return err
			}
			lister, ok := adapter.(provider.ModelLister)
			if !ok {
				return fmt.Errorf("%s cannot list models", adapter.Name())
			}
			models, err := lister.ListModels(ctx)
			if err != nil {
				return err
			}
			if len(models) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no models installed; %s will be used\n", cfg.Ollama.FallbackModel)
				return nil
			}
			for _, model := range models {
				fmt.Fprintln(cmd.OutOrStdout(), model)
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent turns from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := journal.OpenDefault()
			if err != nil {
				return err
			}
			defer store.Close()

			turns, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(turns) == 0 {
				fmt.Fprintln(out, "no turns recorded yet")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, t := range turns {
				command := t.Command
				if !t.Executed && command != "" {
					command += " (not run)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", t.CreatedAt.Local().Format("2006-01-02 15:04"), t.Decision, t.Input, command, t.ExitCode)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of turns to show")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
