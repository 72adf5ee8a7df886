package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"autocommit/cli/internal/erruser"
)

// EnvPrefix is prepended to upper-cased keys to form environment variable names.
const EnvPrefix = "AUTOCOMMIT_"

// EnvGeminiAPIKey is the conventional Gemini key variable, accepted for api_key.
const EnvGeminiAPIKey = "GEMINI_API_KEY"

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
	kindList
)

type keySpec struct {
	kind keyKind
	set  func(c *Config, raw string) error
	get  func(c Config) any
}

var keys = map[string]keySpec{
	"tone": {kindString, func(c *Config, raw string) error {
		if raw != "" {
			c.Tone = raw
		}
		return nil
	}, func(c Config) any { return c.Tone }},
	"use_conventional_commits": {kindBool, func(c *Config, raw string) error {
		return setBool(&c.UseConventionalCommits, "use_conventional_commits", raw)
	}, func(c Config) any { return c.UseConventionalCommits }},
	"use_custom_prompt": {kindBool, func(c *Config, raw string) error {
		return setBool(&c.UseCustomPrompt, "use_custom_prompt", raw)
	}, func(c Config) any { return c.UseCustomPrompt }},
	"custom_prompt": {kindString, func(c *Config, raw string) error {
		c.CustomPrompt = raw
		return nil
	}, func(c Config) any { return c.CustomPrompt }},
	"cross_check": {kindBool, func(c *Config, raw string) error {
		return setBool(&c.CrossCheck, "cross_check", raw)
	}, func(c Config) any { return c.CrossCheck }},
	"auto_fill": {kindBool, func(c *Config, raw string) error {
		return setBool(&c.AutoFill, "auto_fill", raw)
	}, func(c Config) any { return c.AutoFill }},
	"api_key": {kindString, func(c *Config, raw string) error {
		if raw != "" {
			c.APIKey = raw
		}
		return nil
	}, func(c Config) any { return c.APIKey }},
	"provider": {kindString, func(c *Config, raw string) error {
		p, err := validateProvider(raw)
		if err != nil {
			return err
		}
		c.Provider = p
		return nil
	}, func(c Config) any { return c.Provider }},
	"model": {kindString, func(c *Config, raw string) error {
		if raw != "" {
			c.Model = raw
		}
		return nil
	}, func(c Config) any { return c.Model }},
	"gemini_base_url": {kindString, func(c *Config, raw string) error {
		if raw != "" {
			c.GeminiBaseURL = raw
		}
		return nil
	}, func(c Config) any { return c.GeminiBaseURL }},
	"ollama_base_url": {kindString, func(c *Config, raw string) error {
		if raw != "" {
			c.OllamaBaseURL = raw
		}
		return nil
	}, func(c Config) any { return c.OllamaBaseURL }},
	"ollama_model": {kindString, func(c *Config, raw string) error {
		if raw != "" {
			c.OllamaModel = raw
		}
		return nil
	}, func(c Config) any { return c.OllamaModel }},
	"temperature": {kindFloat, func(c *Config, raw string) error {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 || f > 2 {
			return erruser.Configuration("Invalid temperature; must be between 0 and 2.", err)
		}
		c.Temperature = f
		return nil
	}, func(c Config) any { return c.Temperature }},
	"timeout": {kindDuration, func(c *Config, raw string) error {
		d, err := parseDuration(raw)
		if err != nil {
			return erruser.Configuration("Invalid timeout; use a duration such as 60s.", err)
		}
		c.Timeout = d
		return nil
	}, func(c Config) any { return c.Timeout.String() }},
	"max_diff_chars": {kindInt, func(c *Config, raw string) error {
		return setInt(&c.MaxDiffChars, "max_diff_chars", raw, 1)
	}, func(c Config) any { return c.MaxDiffChars }},
	"max_bullets": {kindInt, func(c *Config, raw string) error {
		return setInt(&c.MaxBullets, "max_bullets", raw, 0)
	}, func(c Config) any { return c.MaxBullets }},
	"exclude": {kindList, func(c *Config, raw string) error {
		c.Exclude = splitList(raw)
		return nil
	}, func(c Config) any { return c.Exclude }},
	"log_level": {kindString, func(c *Config, raw string) error {
		lvl, err := validateLogLevel(raw)
		if err != nil {
			return err
		}
		c.LogLevel = lvl
		return nil
	}, func(c Config) any { return c.LogLevel }},
	"tokenizer": {kindString, func(c *Config, raw string) error {
		c.Tokenizer = raw
		return nil
	}, func(c Config) any { return c.Tokenizer }},
	"context_limit": {kindInt, func(c *Config, raw string) error {
		return setInt(&c.ContextLimit, "context_limit", raw, 1)
	}, func(c Config) any { return c.ContextLimit }},
	"warn_threshold": {kindFloat, func(c *Config, raw string) error {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return erruser.Configuration("Invalid warn_threshold; must be a non-negative number.", err)
		}
		c.WarnThreshold = f
		return nil
	}, func(c Config) any { return c.WarnThreshold }},
}

func setBool(dst *bool, key, raw string) error {
	b, err := parseBool(raw)
	if err != nil {
		return erruser.Configuration(fmt.Sprintf("Invalid %s; use true or false.", key), err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key, raw string, min int64) error {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err == nil && n < min {
		err = fmt.Errorf("%d is below minimum %d", n, min)
	}
	if err == nil {
		var v int
		v, err = int64ToInt(n)
		if err == nil {
			*dst = v
			return nil
		}
	}
	return erruser.Configuration(fmt.Sprintf("Invalid %s; must be an integer >= %d.", key, min), err)
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Keys returns every configuration key, sorted.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsBoolKey reports whether key holds a boolean and can be toggled.
func IsBoolKey(key string) bool {
	spec, ok := keys[key]
	return ok && spec.kind == kindBool
}

// Value returns the value of key in c, or false if key is unknown.
func (c Config) Value(key string) (any, bool) {
	spec, ok := keys[key]
	if !ok {
		return nil, false
	}
	return spec.get(c), true
}

// Set parses raw for key and stores it on c.
func (c *Config) Set(key, raw string) error {
	spec, ok := keys[key]
	if !ok {
		return erruser.Configuration(fmt.Sprintf("Unknown configuration key %q.", key), nil)
	}
	return spec.set(c, strings.TrimSpace(raw))
}

// applyEnv applies GEMINI_API_KEY and then AUTOCOMMIT_<KEY> variables. Empty values are ignored.
func applyEnv(cfg *Config, vals map[string]string) error {
	if v := vals[EnvGeminiAPIKey]; v != "" {
		cfg.APIKey = v
	}
	for _, key := range Keys() {
		v, ok := vals[EnvPrefix+strings.ToUpper(key)]
		if !ok || v == "" {
			continue
		}
		if err := keys[key].set(cfg, v); err != nil {
			return err
		}
	}
	return nil
}

// Persist writes key=raw into the TOML file at path, keeping every other key
// already present. The file is created (mode 0600) with parent directories if missing.
func Persist(path, key, raw string) error {
	spec, ok := keys[key]
	if !ok {
		return erruser.Configuration(fmt.Sprintf("Unknown configuration key %q.", key), nil)
	}
	// Validate through the typed setter so invalid values never reach disk.
	probe := DefaultConfig()
	if err := spec.set(&probe, strings.TrimSpace(raw)); err != nil {
		return err
	}

	doc := map[string]any{}
	if _, err := toml.DecodeFile(path, &doc); err != nil && !errors.Is(err, os.ErrNotExist) {
		return erruser.Configuration(fmt.Sprintf("Invalid configuration in %s.", path), err)
	}
	doc[key] = spec.get(probe)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return erruser.Configuration("Could not create configuration directory.", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return erruser.Configuration("Could not write configuration file.", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return erruser.Configuration("Could not write configuration file.", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return erruser.Configuration("Could not write configuration file.", err)
	}
	if err := tmp.Close(); err != nil {
		return erruser.Configuration("Could not write configuration file.", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return erruser.Configuration("Could not write configuration file.", err)
	}
	return nil
}
