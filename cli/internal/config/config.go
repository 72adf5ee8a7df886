// Package config provides autocommit configuration with a defined load order:
// CLI flags > environment variables > .env file > repo config > global config > defaults.
//
// Paths:
//   - Repo: .autocommit/config.toml (relative to repo root)
//   - Global: XDG config dir, e.g. ~/.config/autocommit/config.toml (see os.UserConfigDir)
//   - Dotenv: .env in the repo root; its values never override the real environment.
//
// Environment variables (override config files when set):
//   - AUTOCOMMIT_<KEY> for every key in Keys (e.g. AUTOCOMMIT_TONE, AUTOCOMMIT_CROSS_CHECK).
//   - GEMINI_API_KEY is accepted for api_key; AUTOCOMMIT_API_KEY wins when both are set.
//   - Booleans accept 1/true/yes/on and 0/false/no/off; durations accept Go syntax or integer seconds.
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"autocommit/cli/internal/erruser"
)

// Config holds all autocommit configuration.
type Config struct {
	// Tone is "Professional" or a persona name; unknown names fall back to the neutral instruction.
	Tone                   string `toml:"tone"`
	UseConventionalCommits bool   `toml:"use_conventional_commits"`
	UseCustomPrompt        bool   `toml:"use_custom_prompt"`
	CustomPrompt           string `toml:"custom_prompt"`
	// CrossCheck asks the user to Accept / Regenerate / Copy before delivering. Default true.
	CrossCheck bool `toml:"cross_check"`
	// AutoFill delivers to the commit draft instead of the clipboard when CrossCheck is off.
	AutoFill bool   `toml:"auto_fill"`
	APIKey   string `toml:"api_key"`
	// Provider is "gemini" (default) or "ollama".
	Provider      string        `toml:"provider"`
	Model         string        `toml:"model"`
	GeminiBaseURL string        `toml:"gemini_base_url"`
	OllamaBaseURL string        `toml:"ollama_base_url"`
	OllamaModel   string        `toml:"ollama_model"`
	Temperature   float64       `toml:"temperature"` // Ollama /api/generate option.
	Timeout       time.Duration `toml:"timeout"`
	MaxDiffChars  int           `toml:"max_diff_chars"`
	// MaxBullets caps bullets kept by the normalizer (0 = pass all through).
	MaxBullets int      `toml:"max_bullets"`
	Exclude    []string `toml:"exclude"`
	LogLevel   string   `toml:"log_level"`
	// Tokenizer selects the prompt token estimator: "" (chars/4) or a tiktoken encoding such as cl100k_base.
	Tokenizer     string  `toml:"tokenizer"`
	ContextLimit  int     `toml:"context_limit"`
	WarnThreshold float64 `toml:"warn_threshold"`
}

// Generation is the read-only snapshot of the settings that shape one drafting
// attempt. It is taken once per attempt and never mutated.
type Generation struct {
	Tone                   string
	UseConventionalCommits bool
	UseCustomPrompt        bool
	CustomPrompt           string
	CrossCheck             bool
	AutoFill               bool
	APIKey                 string
	MaxDiffChars           int
	MaxBullets             int
	Exclude                []string
}

// Generation returns the drafting snapshot of c. Exclude is copied.
func (c Config) Generation() Generation {
	var exclude []string
	if c.Exclude != nil {
		exclude = append([]string{}, c.Exclude...)
	}
	return Generation{
		Tone:                   c.Tone,
		UseConventionalCommits: c.UseConventionalCommits,
		UseCustomPrompt:        c.UseCustomPrompt,
		CustomPrompt:           c.CustomPrompt,
		CrossCheck:             c.CrossCheck,
		AutoFill:               c.AutoFill,
		APIKey:                 c.APIKey,
		MaxDiffChars:           c.MaxDiffChars,
		MaxBullets:             c.MaxBullets,
		Exclude:                exclude,
	}
}

// Overrides represents optional CLI flag overrides. Non-nil pointer means
// "override with this value".
type Overrides struct {
	Tone                   *string
	UseConventionalCommits *bool
	UseCustomPrompt        *bool
	CustomPrompt           *string
	CrossCheck             *bool
	AutoFill               *bool
	Provider               *string
	Model                  *string
	LogLevel               *string
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, repo config is RepoRoot/.autocommit/config.toml.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, GlobalPath() is used.
	GlobalConfigPath string
	// DotEnvPath is the dotenv file; if empty and RepoRoot is set, RepoRoot/.env is used.
	DotEnvPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	DefaultTone = "Professional"

	_defaultProvider      = ProviderGemini
	_defaultModel         = "gemini-2.0-flash"
	_defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	_defaultOllamaBaseURL = "http://localhost:11434"
	_defaultOllamaModel   = "qwen2.5-coder:7b"
	_defaultTemperature   = 0.2
	_defaultTimeout       = 60 * time.Second
	_defaultMaxDiffChars  = 8000
	_defaultLogLevel      = "warn"
	_defaultContextLimit  = 32768
	_defaultWarnThreshold = 0.9
)

var _defaultExclude = []string{"package-lock.json"}

var validLogLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}

// errIntOverflow is returned when an int64 value does not fit in int (e.g. on 32-bit or huge TOML/env values).
var errIntOverflow = errors.New("value out of range for int")

// int64ToInt converts n to int. It returns an error if n is outside the range of int (e.g. overflow on 32-bit).
func int64ToInt(n int64) (int, error) {
	if n < int64(math.MinInt) || n > int64(math.MaxInt) {
		return 0, errIntOverflow
	}
	return int(n), nil
}

// DefaultConfig returns the default configuration (no I/O).
func DefaultConfig() Config {
	return Config{
		Tone:          DefaultTone,
		CrossCheck:    true,
		Provider:      _defaultProvider,
		Model:         _defaultModel,
		GeminiBaseURL: _defaultGeminiBaseURL,
		OllamaBaseURL: _defaultOllamaBaseURL,
		OllamaModel:   _defaultOllamaModel,
		Temperature:   _defaultTemperature,
		Timeout:       _defaultTimeout,
		MaxDiffChars:  _defaultMaxDiffChars,
		Exclude:       append([]string{}, _defaultExclude...),
		LogLevel:      _defaultLogLevel,
		ContextLimit:  _defaultContextLimit,
		WarnThreshold: _defaultWarnThreshold,
	}
}

// GlobalPath returns the default global config file path.
func GlobalPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", erruser.Configuration("Could not determine config directory.", err)
	}
	return filepath.Join(dir, "autocommit", "config.toml"), nil
}

// RepoPath returns the repo config file path for repoRoot.
func RepoPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".autocommit", "config.toml")
}

// Load loads configuration with precedence: defaults < global file < repo file < .env < env < overrides.
// Missing config files are ignored. Invalid TOML or invalid env values return an error.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		p, err := GlobalPath()
		if err != nil {
			return nil, err
		}
		globalPath = p
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}

	if opts.RepoRoot != "" {
		if err := mergeFile(&cfg, RepoPath(opts.RepoRoot)); err != nil {
			return nil, err
		}
	}

	vals, err := envValues(opts)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg, vals); err != nil {
		return nil, err
	}
	if err := applyOverrides(&cfg, opts.Overrides); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envValues merges the dotenv file under the process environment.
func envValues(opts LoadOptions) (map[string]string, error) {
	vals := make(map[string]string)
	dotenv := opts.DotEnvPath
	if dotenv == "" && opts.RepoRoot != "" {
		dotenv = filepath.Join(opts.RepoRoot, ".env")
	}
	if dotenv != "" {
		fileVals, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			for k, v := range fileVals {
				vals[k] = strings.TrimSpace(v)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, erruser.Configuration("Invalid .env file.", err)
		}
	}
	for _, e := range opts.Env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		vals[strings.TrimSpace(e[:idx])] = strings.TrimSpace(e[idx+1:])
	}
	return vals, nil
}

// mergeFile reads path and merges into cfg. Only keys present in the file
// overwrite earlier values. Missing file is skipped (no error).
func mergeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.Configuration("Invalid configuration file.", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.Configuration("Could not read configuration file.", err)
	}
	var file struct {
		Tone                   *string   `toml:"tone"`
		UseConventionalCommits *bool     `toml:"use_conventional_commits"`
		UseCustomPrompt        *bool     `toml:"use_custom_prompt"`
		CustomPrompt           *string   `toml:"custom_prompt"`
		CrossCheck             *bool     `toml:"cross_check"`
		AutoFill               *bool     `toml:"auto_fill"`
		APIKey                 *string   `toml:"api_key"`
		Provider               *string   `toml:"provider"`
		Model                  *string   `toml:"model"`
		GeminiBaseURL          *string   `toml:"gemini_base_url"`
		OllamaBaseURL          *string   `toml:"ollama_base_url"`
		OllamaModel            *string   `toml:"ollama_model"`
		Temperature            *float64  `toml:"temperature"`
		Timeout                *string   `toml:"timeout"`
		MaxDiffChars           *int64    `toml:"max_diff_chars"`
		MaxBullets             *int64    `toml:"max_bullets"`
		Exclude                *[]string `toml:"exclude"`
		LogLevel               *string   `toml:"log_level"`
		Tokenizer              *string   `toml:"tokenizer"`
		ContextLimit           *int64    `toml:"context_limit"`
		WarnThreshold          *float64  `toml:"warn_threshold"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.Configuration(fmt.Sprintf("Invalid configuration in %s.", path), err)
	}
	if file.Tone != nil && *file.Tone != "" {
		cfg.Tone = *file.Tone
	}
	if file.UseConventionalCommits != nil {
		cfg.UseConventionalCommits = *file.UseConventionalCommits
	}
	if file.UseCustomPrompt != nil {
		cfg.UseCustomPrompt = *file.UseCustomPrompt
	}
	if file.CustomPrompt != nil {
		cfg.CustomPrompt = *file.CustomPrompt
	}
	if file.CrossCheck != nil {
		cfg.CrossCheck = *file.CrossCheck
	}
	if file.AutoFill != nil {
		cfg.AutoFill = *file.AutoFill
	}
	if file.APIKey != nil && *file.APIKey != "" {
		cfg.APIKey = *file.APIKey
	}
	if file.Provider != nil && *file.Provider != "" {
		p, err := validateProvider(*file.Provider)
		if err != nil {
			return err
		}
		cfg.Provider = p
	}
	if file.Model != nil && *file.Model != "" {
		cfg.Model = *file.Model
	}
	if file.GeminiBaseURL != nil && *file.GeminiBaseURL != "" {
		cfg.GeminiBaseURL = *file.GeminiBaseURL
	}
	if file.OllamaBaseURL != nil && *file.OllamaBaseURL != "" {
		cfg.OllamaBaseURL = *file.OllamaBaseURL
	}
	if file.OllamaModel != nil && *file.OllamaModel != "" {
		cfg.OllamaModel = *file.OllamaModel
	}
	if file.Temperature != nil && *file.Temperature >= 0 && *file.Temperature <= 2 {
		cfg.Temperature = *file.Temperature
	}
	if file.Timeout != nil && *file.Timeout != "" {
		d, err := parseDuration(*file.Timeout)
		if err != nil {
			return erruser.Configuration("Configuration timeout is invalid.", err)
		}
		cfg.Timeout = d
	}
	if file.MaxDiffChars != nil && *file.MaxDiffChars > 0 {
		v, err := int64ToInt(*file.MaxDiffChars)
		if err != nil {
			return erruser.Configuration("Configuration max_diff_chars value out of range.", err)
		}
		cfg.MaxDiffChars = v
	}
	if file.MaxBullets != nil && *file.MaxBullets >= 0 {
		v, err := int64ToInt(*file.MaxBullets)
		if err != nil {
			return erruser.Configuration("Configuration max_bullets value out of range.", err)
		}
		cfg.MaxBullets = v
	}
	if file.Exclude != nil {
		cfg.Exclude = append([]string{}, (*file.Exclude)...)
	}
	if file.LogLevel != nil && *file.LogLevel != "" {
		lvl, err := validateLogLevel(*file.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = lvl
	}
	if file.Tokenizer != nil {
		cfg.Tokenizer = *file.Tokenizer
	}
	if file.ContextLimit != nil && *file.ContextLimit > 0 {
		v, err := int64ToInt(*file.ContextLimit)
		if err != nil {
			return erruser.Configuration("Configuration context_limit value out of range.", err)
		}
		cfg.ContextLimit = v
	}
	if file.WarnThreshold != nil && *file.WarnThreshold >= 0 {
		cfg.WarnThreshold = *file.WarnThreshold
	}
	return nil
}

func validateProvider(s string) (string, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case ProviderGemini, ProviderOllama:
		return norm, nil
	}
	return "", erruser.Configuration("Invalid provider; use gemini or ollama.", nil)
}

func validateLogLevel(s string) (string, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if _, ok := validLogLevels[norm]; !ok {
		return "", erruser.Configuration("Invalid log_level; use debug, info, warn, or error.", nil)
	}
	return norm, nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	// Try Go duration first (e.g. "5m", "30s")
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}
	// Try integer seconds
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(n) * time.Second, nil
}

// parseBool parses common boolean env values: 1/true/yes/on = true, 0/false/no/off = false (case-insensitive).
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

func applyOverrides(cfg *Config, o *Overrides) error {
	if o == nil {
		return nil
	}
	if o.Tone != nil && *o.Tone != "" {
		cfg.Tone = *o.Tone
	}
	if o.UseConventionalCommits != nil {
		cfg.UseConventionalCommits = *o.UseConventionalCommits
	}
	if o.UseCustomPrompt != nil {
		cfg.UseCustomPrompt = *o.UseCustomPrompt
	}
	if o.CustomPrompt != nil {
		cfg.CustomPrompt = *o.CustomPrompt
	}
	if o.CrossCheck != nil {
		cfg.CrossCheck = *o.CrossCheck
	}
	if o.AutoFill != nil {
		cfg.AutoFill = *o.AutoFill
	}
	if o.Provider != nil && *o.Provider != "" {
		p, err := validateProvider(*o.Provider)
		if err != nil {
			return err
		}
		cfg.Provider = p
	}
	// Model applies to whichever provider is selected after Provider above.
	if o.Model != nil && *o.Model != "" {
		if cfg.Provider == ProviderOllama {
			cfg.OllamaModel = *o.Model
		} else {
			cfg.Model = *o.Model
		}
	}
	if o.LogLevel != nil && *o.LogLevel != "" {
		lvl, err := validateLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = lvl
	}
	return nil
}
