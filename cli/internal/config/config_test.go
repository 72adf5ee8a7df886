package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"

	"autocommit/cli/internal/erruser"
)

func ptrStr(s string) *string { return &s }
func ptrBool(b bool) *bool    { return &b }

func loadIn(t *testing.T, dir string, env []string, o *Overrides) *Config {
	t.Helper()
	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "global.toml"),
		Env:              env,
		Overrides:        o,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	if c.Model != _defaultModel {
		t.Errorf("Model = %q, want %q", c.Model, _defaultModel)
	}
	if !c.CrossCheck {
		t.Error("CrossCheck = false, want true")
	}
	if c.AutoFill {
		t.Error("AutoFill = true, want false")
	}
	if c.Tone != DefaultTone {
		t.Errorf("Tone = %q, want %q", c.Tone, DefaultTone)
	}
	if c.MaxDiffChars != 8000 {
		t.Errorf("MaxDiffChars = %d, want 8000", c.MaxDiffChars)
	}
	if diff := cmp.Diff([]string{"package-lock.json"}, c.Exclude); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}
	if c.Timeout != _defaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, _defaultTimeout)
	}
}

func TestLoad_defaultsOnly(t *testing.T) {
	t.Parallel()
	cfg := loadIn(t, t.TempDir(), []string{}, nil)
	if diff := cmp.Diff(DefaultConfig(), *cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_repoOverridesGlobal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "global.toml"), "tone = \"Pirate\"\nauto_fill = true\n")
	writeFile(t, RepoPath(dir), "tone = \"Haiku\"\n")
	cfg := loadIn(t, dir, []string{}, nil)
	if cfg.Tone != "Haiku" {
		t.Errorf("Tone = %q, want Haiku", cfg.Tone)
	}
	if !cfg.AutoFill {
		t.Error("AutoFill from global file lost")
	}
}

func TestLoad_falseInFileOverridesTrueDefault(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, RepoPath(dir), "cross_check = false\n")
	cfg := loadIn(t, dir, []string{}, nil)
	if cfg.CrossCheck {
		t.Error("CrossCheck = true, want false from repo file")
	}
}

func TestLoad_dotenvUnderEnv(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "AUTOCOMMIT_TONE=Robot\nGEMINI_API_KEY=from-dotenv\n")
	cfg := loadIn(t, dir, []string{}, nil)
	if cfg.Tone != "Robot" || cfg.APIKey != "from-dotenv" {
		t.Errorf("got tone %q key %q, want dotenv values", cfg.Tone, cfg.APIKey)
	}
	cfg = loadIn(t, dir, []string{"AUTOCOMMIT_TONE=Pirate"}, nil)
	if cfg.Tone != "Pirate" {
		t.Errorf("Tone = %q, want real env to beat .env", cfg.Tone)
	}
}

func TestLoad_envOverridesRepo(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, RepoPath(dir), "max_diff_chars = 100\nexclude = [\"a.lock\"]\n")
	cfg := loadIn(t, dir, []string{
		"AUTOCOMMIT_MAX_DIFF_CHARS=200",
		"AUTOCOMMIT_EXCLUDE=yarn.lock, package-lock.json",
		"AUTOCOMMIT_CROSS_CHECK=off",
	}, nil)
	if cfg.MaxDiffChars != 200 {
		t.Errorf("MaxDiffChars = %d, want 200", cfg.MaxDiffChars)
	}
	if diff := cmp.Diff([]string{"yarn.lock", "package-lock.json"}, cfg.Exclude); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}
	if cfg.CrossCheck {
		t.Error("CrossCheck = true, want false")
	}
}

func TestLoad_apiKeyPrecedence(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "global.toml"), "api_key = \"from-file\"\n")
	if got := loadIn(t, dir, []string{}, nil).APIKey; got != "from-file" {
		t.Errorf("APIKey = %q, want from-file", got)
	}
	if got := loadIn(t, dir, []string{"GEMINI_API_KEY=g"}, nil).APIKey; got != "g" {
		t.Errorf("APIKey = %q, want g", got)
	}
	got := loadIn(t, dir, []string{"GEMINI_API_KEY=g", "AUTOCOMMIT_API_KEY=a"}, nil).APIKey
	if got != "a" {
		t.Errorf("APIKey = %q, want a", got)
	}
}

func TestLoad_overridesOverrideEnv(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := loadIn(t, dir, []string{"AUTOCOMMIT_TONE=Pirate", "AUTOCOMMIT_AUTO_FILL=1"}, &Overrides{
		Tone:     ptrStr("Marvel"),
		AutoFill: ptrBool(false),
	})
	if cfg.Tone != "Marvel" {
		t.Errorf("Tone = %q, want Marvel", cfg.Tone)
	}
	if cfg.AutoFill {
		t.Error("AutoFill = true, want override false")
	}
}

func TestLoad_modelOverrideFollowsProvider(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := loadIn(t, dir, []string{}, &Overrides{Model: ptrStr("gemini-pro")})
	if cfg.Model != "gemini-pro" || cfg.OllamaModel != _defaultOllamaModel {
		t.Errorf("gemini: Model = %q OllamaModel = %q", cfg.Model, cfg.OllamaModel)
	}
	cfg = loadIn(t, dir, []string{}, &Overrides{Provider: ptrStr("ollama"), Model: ptrStr("llama3")})
	if cfg.OllamaModel != "llama3" || cfg.Model != _defaultModel {
		t.Errorf("ollama: Model = %q OllamaModel = %q", cfg.Model, cfg.OllamaModel)
	}
}

func TestLoad_invalidTOML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, RepoPath(dir), "tone = \n")
	_, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "global.toml"),
		Env:              []string{},
	})
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
	if !errors.Is(err, erruser.ErrConfiguration) {
		t.Errorf("err = %v, want configuration kind", err)
	}
}

func TestLoad_invalidEnv(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, env := range []string{
		"AUTOCOMMIT_AUTO_FILL=maybe",
		"AUTOCOMMIT_PROVIDER=openai",
		"AUTOCOMMIT_TIMEOUT=soon",
		"AUTOCOMMIT_MAX_DIFF_CHARS=0",
		"AUTOCOMMIT_LOG_LEVEL=loud",
	} {
		_, err := Load(context.Background(), LoadOptions{
			RepoRoot:         dir,
			GlobalConfigPath: filepath.Join(dir, "global.toml"),
			Env:              []string{env},
		})
		if err == nil {
			t.Errorf("%s: expected error", env)
		}
	}
}

func TestLoad_timeoutInTOMLAndEnv(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, RepoPath(dir), "timeout = \"2m\"\n")
	if got := loadIn(t, dir, []string{}, nil).Timeout; got != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", got)
	}
	if got := loadIn(t, dir, []string{"AUTOCOMMIT_TIMEOUT=90"}, nil).Timeout; got != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", got)
	}
}

func TestGeneration_snapshotIsIndependent(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	g := c.Generation()
	c.Exclude[0] = "changed"
	c.Tone = "Pirate"
	if g.Exclude[0] != "package-lock.json" || g.Tone != DefaultTone {
		t.Errorf("snapshot changed with config: %+v", g)
	}
}

func TestSetAndValue(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	if err := c.Set("max_bullets", "4"); err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Value("max_bullets"); !ok || v != 4 {
		t.Errorf("Value(max_bullets) = %v, %v", v, ok)
	}
	if err := c.Set("nope", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := c.Set("max_bullets", "-1"); err == nil {
		t.Error("expected error for negative max_bullets")
	}
	if !IsBoolKey("cross_check") || IsBoolKey("tone") {
		t.Error("IsBoolKey mismatch")
	}
}

func TestPersist_keepsOtherKeys(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.toml")
	if err := Persist(path, "tone", "Pirate"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := Persist(path, "cross_check", "false"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := Persist(path, "tone", "Haiku"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	var doc map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"tone": "Haiku", "cross_check": false}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("persisted doc mismatch (-want +got):\n%s", diff)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestPersist_rejectsInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.toml")
	err := Persist(path, "auto_fill", "perhaps")
	if err == nil || !strings.Contains(err.Error(), "auto_fill") {
		t.Errorf("err = %v, want auto_fill validation error", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("invalid value must not create the file")
	}
}

func TestPersist_roundTripsThroughLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := Persist(RepoPath(dir), "exclude", "a.lock,b.lock"); err != nil {
		t.Fatal(err)
	}
	if err := Persist(RepoPath(dir), "timeout", "45s"); err != nil {
		t.Fatal(err)
	}
	cfg := loadIn(t, dir, []string{}, nil)
	if diff := cmp.Diff([]string{"a.lock", "b.lock"}, cfg.Exclude); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Timeout)
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"5m", 5 * time.Minute},
		{"30s", 30 * time.Second},
		{"90", 90 * time.Second},
		{"0", 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseDuration(tt.in)
			if err != nil {
				t.Fatalf("parseDuration(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDuration_invalid(t *testing.T) {
	t.Parallel()
	if _, err := parseDuration(""); err == nil {
		t.Error("expected error for empty duration")
	}
	if _, err := parseDuration("x1m"); err == nil {
		t.Error("expected error for invalid duration")
	}
}
