package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ashwch/determinal/internal/appdirs"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BackendAuto   = "auto"
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

type OpenAIConfig struct {
	BaseURL        string `toml:"base_url" json:"base_url"`
	Model          string `toml:"model" json:"model"`
	APIKeyEnv      string `toml:"api_key_env" json:"api_key_env"`
	SystemPrompt   string `toml:"system_prompt" json:"system_prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
}

type OllamaConfig struct {
	BaseURL        string `toml:"base_url" json:"base_url"`
	Model          string `toml:"model,omitempty" json:"model,omitempty"`
	FallbackModel  string `toml:"fallback_model" json:"fallback_model"`
	ProbeTimeoutMS int    `toml:"probe_timeout_ms" json:"probe_timeout_ms"`
	ListTimeoutMS  int    `toml:"list_timeout_ms" json:"list_timeout_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
}

type UIConfig struct {
	Backend string `toml:"backend" json:"backend"`
}

type FastPathConfig struct {
	Enabled     bool   `toml:"enabled" json:"enabled"`
	CatalogFile string `toml:"catalog_file,omitempty" json:"catalog_file,omitempty"`
}

type DecisionConfig struct {
	Affirmations []string `toml:"affirmations" json:"affirmations"`
	SingleRun    string   `toml:"single_run" json:"single_run"`
}

type JournalConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
}

type LogConfig struct {
	Level string `toml:"level" json:"level"`
}

type Config struct {
	Version  int            `toml:"version" json:"version"`
	Backend  string         `toml:"backend" json:"backend"`
	OpenAI   OpenAIConfig   `toml:"openai" json:"openai"`
	Ollama   OllamaConfig   `toml:"ollama" json:"ollama"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	FastPath FastPathConfig `toml:"fastpath" json:"fastpath"`
	Decision DecisionConfig `toml:"decision" json:"decision"`
	Journal  JournalConfig  `toml:"journal" json:"journal"`
	Log      LogConfig      `toml:"log" json:"log"`
}

func Default() Config {
	return Config{
		Version: 1,
		Backend: BackendAuto,
		OpenAI: OpenAIConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4",
			APIKeyEnv:      "OPENAI_API_KEY",
			SystemPrompt:   "You are a shell assistant. Only suggest shell commands.",
			TimeoutSeconds: 60,
		},
		Ollama: OllamaConfig{
			BaseURL:        "http://localhost:11434",
			FallbackModel:  "llama3",
			ProbeTimeoutMS: 1000,
			ListTimeoutMS:  2000,
			TimeoutSeconds: 120,
		},
		UI: UIConfig{
			Backend: "huh",
		},
		FastPath: FastPathConfig{
			Enabled: true,
		},
		Decision: DecisionConfig{
			Affirmations: []string{
				"✅",
				"is correct",
				"already correct",
				"no need for correction",
				"is valid",
			},
			SingleRun: "parsed",
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func LoadOrCreate() (Config, string, error) {
	path, err := appdirs.ConfigFilePath()
	if err != nil {
		return Config{}, "", err
	}
	cfg, err := LoadPath(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// LoadPath reads the config at path, writing defaults there first when the
// file does not exist yet.
func LoadPath(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	} else if err != nil {
		return Config{}, fmt.Errorf("could not stat config path: %w", err)
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", err)
	}
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config file: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func Save(path string, cfg Config) error {
	cfg.normalize()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not serialize config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}
	tempFile, err := os.CreateTemp(dir, ".determinal-config-*.toml")
	if err != nil {
		return fmt.Errorf("could not create temp config file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = os.Remove(tempPath)
	}

	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not write temp config file: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not secure temp config file permissions: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("could not close temp config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("could not atomically replace config file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("could not secure config file permissions: %w", err)
	}
	return nil
}

// LoadEnvFiles loads .env files from the working directory and the config
// directory. Variables already present in the environment win.
func LoadEnvFiles() []string {
	candidates := []string{".env"}
	if dir, err := appdirs.ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	loaded := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			continue
		}
		loaded = append(loaded, path)
	}
	return loaded
}

func (c *Config) normalize() {
	defaults := Default()
	if c.Version == 0 {
		c.Version = defaults.Version
	}
	c.Backend = normalizeBackend(c.Backend, defaults.Backend)

	if strings.TrimSpace(c.OpenAI.BaseURL) == "" {
		c.OpenAI.BaseURL = defaults.OpenAI.BaseURL
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if strings.TrimSpace(c.OpenAI.Model) == "" {
		c.OpenAI.Model = defaults.OpenAI.Model
	}
	if strings.TrimSpace(c.OpenAI.APIKeyEnv) == "" {
		c.OpenAI.APIKeyEnv = defaults.OpenAI.APIKeyEnv
	}
	if strings.TrimSpace(c.OpenAI.SystemPrompt) == "" {
		c.OpenAI.SystemPrompt = defaults.OpenAI.SystemPrompt
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaults.OpenAI.TimeoutSeconds
	}

	if strings.TrimSpace(c.Ollama.BaseURL) == "" {
		c.Ollama.BaseURL = defaults.Ollama.BaseURL
	}
	c.Ollama.BaseURL = strings.TrimRight(strings.TrimSpace(c.Ollama.BaseURL), "/")
	c.Ollama.Model = strings.TrimSpace(c.Ollama.Model)
	if strings.TrimSpace(c.Ollama.FallbackModel) == "" {
		c.Ollama.FallbackModel = defaults.Ollama.FallbackModel
	}
	if c.Ollama.ProbeTimeoutMS <= 0 {
		c.Ollama.ProbeTimeoutMS = defaults.Ollama.ProbeTimeoutMS
	}
	if c.Ollama.ListTimeoutMS <= 0 {
		c.Ollama.ListTimeoutMS = defaults.Ollama.ListTimeoutMS
	}
	if c.Ollama.TimeoutSeconds <= 0 {
		c.Ollama.TimeoutSeconds = defaults.Ollama.TimeoutSeconds
	}

	c.UI.Backend = normalizeUIBackend(c.UI.Backend, defaults.UI.Backend)
	if len(c.Decision.Affirmations) == 0 {
		c.Decision.Affirmations = defaults.Decision.Affirmations
	}
	c.Decision.SingleRun = normalizeSingleRun(c.Decision.SingleRun, defaults.Decision.SingleRun)
	c.Log.Level = normalizeLogLevel(c.Log.Level, defaults.Log.Level)
}

func (c *Config) Set(key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)

	switch key {
	case "backend":
		c.Backend = normalizeBackend(value, "")
		if c.Backend == "" {
			return fmt.Errorf("backend must be one of auto|openai|ollama")
		}
	case "openai.base_url":
		c.OpenAI.BaseURL = value
	case "openai.model":
		c.OpenAI.Model = value
	case "openai.api_key_env":
		c.OpenAI.APIKeyEnv = value
	case "openai.system_prompt":
		c.OpenAI.SystemPrompt = value
	case "openai.timeout_seconds":
		n, err := parsePositive(value)
		if err != nil {
			return fmt.Errorf("openai.timeout_seconds must be a positive number")
		}
		c.OpenAI.TimeoutSeconds = n
	case "ollama.base_url":
		c.Ollama.BaseURL = value
	case "ollama.model":
		c.Ollama.Model = value
	case "ollama.fallback_model":
		c.Ollama.FallbackModel = value
	case "ollama.probe_timeout_ms":
		n, err := parsePositive(value)
		if err != nil {
			return fmt.Errorf("ollama.probe_timeout_ms must be a positive number")
		}
		c.Ollama.ProbeTimeoutMS = n
	case "ollama.list_timeout_ms":
		n, err := parsePositive(value)
		if err != nil {
			return fmt.Errorf("ollama.list_timeout_ms must be a positive number")
		}
		c.Ollama.ListTimeoutMS = n
	case "ollama.timeout_seconds":
		n, err := parsePositive(value)
		if err != nil {
			return fmt.Errorf("ollama.timeout_seconds must be a positive number")
		}
		c.Ollama.TimeoutSeconds = n
	case "ui.backend":
		c.UI.Backend = normalizeUIBackend(value, "")
		if c.UI.Backend == "" {
			return fmt.Errorf("ui.backend must be one of auto|bubbletea|huh|tview|plain")
		}
	case "fastpath.enabled":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("fastpath.enabled must be boolean")
		}
		c.FastPath.Enabled = b
	case "fastpath.catalog_file":
		c.FastPath.CatalogFile = value
	case "decision.affirmations":
		phrases := splitCommaList(value)
		if len(phrases) == 0 {
			return fmt.Errorf("decision.affirmations needs at least one phrase")
		}
		c.Decision.Affirmations = phrases
	case "decision.single_run":
		c.Decision.SingleRun = normalizeSingleRun(value, "")
		if c.Decision.SingleRun == "" {
			return fmt.Errorf("decision.single_run must be parsed or candidate")
		}
	case "journal.enabled":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("journal.enabled must be boolean")
		}
		c.Journal.Enabled = b
	case "log.level":
		c.Log.Level = normalizeLogLevel(value, "")
		if c.Log.Level == "" {
			return fmt.Errorf("log.level must be one of debug|info|warn|error")
		}
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	c.normalize()
	return nil
}

func (c Config) Get(key string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(key)) {
	case "backend":
		return c.Backend, nil
	case "openai.base_url":
		return c.OpenAI.BaseURL, nil
	case "openai.model":
		return c.OpenAI.Model, nil
	case "openai.api_key_env":
		return c.OpenAI.APIKeyEnv, nil
	case "openai.system_prompt":
		return c.OpenAI.SystemPrompt, nil
	case "openai.timeout_seconds":
		return strconv.Itoa(c.OpenAI.TimeoutSeconds), nil
	case "ollama.base_url":
		return c.Ollama.BaseURL, nil
	case "ollama.model":
		return c.Ollama.Model, nil
	case "ollama.fallback_model":
		return c.Ollama.FallbackModel, nil
	case "ollama.probe_timeout_ms":
		return strconv.Itoa(c.Ollama.ProbeTimeoutMS), nil
	case "ollama.list_timeout_ms":
		return strconv.Itoa(c.Ollama.ListTimeoutMS), nil
	case "ollama.timeout_seconds":
		return strconv.Itoa(c.Ollama.TimeoutSeconds), nil
	case "ui.backend":
		return c.UI.Backend, nil
	case "fastpath.enabled":
		return strconv.FormatBool(c.FastPath.Enabled), nil
	case "fastpath.catalog_file":
		return c.FastPath.CatalogFile, nil
	case "decision.affirmations":
		return strings.Join(c.Decision.Affirmations, ","), nil
	case "decision.single_run":
		return c.Decision.SingleRun, nil
	case "journal.enabled":
		return strconv.FormatBool(c.Journal.Enabled), nil
	case "log.level":
		return c.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Keys lists every key accepted by Get and Set.
func Keys() []string {
	return []string{
		"backend",
		"openai.base_url",
		"openai.model",
		"openai.api_key_env",
		"openai.system_prompt",
		"openai.timeout_seconds",
		"ollama.base_url",
		"ollama.model",
		"ollama.fallback_model",
		"ollama.probe_timeout_ms",
		"ollama.list_timeout_ms",
		"ollama.timeout_seconds",
		"ui.backend",
		"fastpath.enabled",
		"fastpath.catalog_file",
		"decision.affirmations",
		"decision.single_run",
		"journal.enabled",
		"log.level",
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool: %s", value)
	}
}

func parsePositive(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive: %d", n)
	}
	return n, nil
}

func splitCommaList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func normalizeBackend(value string, fallback string) string {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case BackendAuto, BackendOpenAI, BackendOllama:
		return normalized
	case "local":
		return BackendOllama
	default:
		return strings.ToLower(strings.TrimSpace(fallback))
	}
}

func normalizeUIBackend(value string, fallback string) string {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case "auto", "bubbletea", "huh", "tview", "plain":
		return normalized
	default:
		return strings.ToLower(strings.TrimSpace(fallback))
	}
}

func normalizeSingleRun(value string, fallback string) string {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case "parsed", "candidate":
		return normalized
	default:
		return strings.ToLower(strings.TrimSpace(fallback))
	}
}

func normalizeLogLevel(value string, fallback string) string {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case "debug", "info", "warn", "error":
		return normalized
	case "warning":
		return "warn"
	default:
		return strings.ToLower(strings.TrimSpace(fallback))
	}
}
