package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"autocommit/cli/internal/commitmsg"
	"autocommit/cli/internal/config"
	"autocommit/cli/internal/credential"
	"autocommit/cli/internal/deliver"
	"autocommit/cli/internal/erruser"
	"autocommit/cli/internal/gemini"
	"autocommit/cli/internal/git"
	"autocommit/cli/internal/logging"
	"autocommit/cli/internal/ollama"
	"autocommit/cli/internal/prompt"
	"autocommit/cli/internal/provider"
	"autocommit/cli/internal/review"
	"autocommit/cli/internal/tokens"
	"autocommit/cli/internal/trace"
	"autocommit/cli/internal/ui"
	"autocommit/cli/internal/version"
)

// errExit is returned by RunE to request a specific exit code without
// printing the error again (the command already reported it).
type errExit int

func (e errExit) Error() string {
	return fmt.Sprintf("exit %d", int(e))
}

const (
	exitProvider  = 2
	exitCancelled = 130
)

func main() {
	os.Exit(Run())
}

// Run is the entry point for the CLI. It is exported for testing so that
// main.go can meet per-file coverage requirements.
func Run() int {
	return runCLI(os.Args[1:])
}

func runCLI(args []string) int {
	return execute(args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exitErr errExit
		if errors.As(err, &exitErr) {
			return int(exitErr)
		}
		printError(stderr, err)
		return exitCode(err)
	}
	return 0
}

// printError writes err and, when it wraps a cause, a "Details:" line.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	if u := errors.Unwrap(err); u != nil {
		fmt.Fprintf(w, "Details: %v\n", u)
	}
}

// exitCode maps an unreported error to the process exit code.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return exitCancelled
	case provider.KindOf(err) != 0:
		return exitProvider
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "autocommit",
		Short:   "Draft commit messages for your changes with an LLM",
		Long:    "Collects the staged diff (or unstaged changes when nothing is staged), asks the configured provider for a commit message, and lets you accept, regenerate, or copy it.",
		Version: version.String(),
		Args:    cobra.NoArgs,
		RunE:    runGenerate,
	}
	addGenerationFlags(rootCmd, true)
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newHookCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newToneCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft a commit message for the current changes (default command)",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	addGenerationFlags(cmd, true)
	return cmd
}

// addGenerationFlags registers the flags that override generation settings.
// routing adds --cross-check and --auto-fill, which the hook does not use.
func addGenerationFlags(cmd *cobra.Command, routing bool) {
	cmd.Flags().String("tone", "", "Persona for this run (see `autocommit tone`)")
	cmd.Flags().Bool("conventional", false, "Ask for Conventional Commits style")
	cmd.Flags().String("custom-prompt", "", "Use this style instruction instead of the tone")
	cmd.Flags().String("provider", "", "Text-generation provider: gemini or ollama")
	cmd.Flags().String("model", "", "Model name for the selected provider")
	cmd.Flags().BoolP("verbose", "v", false, "Debug logging to stderr")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress progress and success notices")
	cmd.Flags().Bool("trace", false, "Print the diff, prompt, and raw response to stderr")
	if routing {
		cmd.Flags().Bool("cross-check", true, "Ask to accept, regenerate, or copy before delivering")
		cmd.Flags().Bool("auto-fill", false, "Without cross-check, write the draft file instead of copying")
	}
}

// overridesFromFlags returns Overrides for the generation flags that were set, or nil.
func overridesFromFlags(cmd *cobra.Command) (*config.Overrides, error) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	o := &config.Overrides{}
	set := false
	if changed("tone") {
		v, _ := flags.GetString("tone")
		tone, ok := canonicalTone(v)
		if !ok {
			return nil, unknownTone(v)
		}
		o.Tone = &tone
		set = true
	}
	if changed("conventional") {
		v, _ := flags.GetBool("conventional")
		o.UseConventionalCommits = &v
		set = true
	}
	if changed("custom-prompt") {
		v, _ := flags.GetString("custom-prompt")
		use := strings.TrimSpace(v) != ""
		o.CustomPrompt = &v
		o.UseCustomPrompt = &use
		set = true
	}
	if changed("cross-check") {
		v, _ := flags.GetBool("cross-check")
		o.CrossCheck = &v
		set = true
	}
	if changed("auto-fill") {
		v, _ := flags.GetBool("auto-fill")
		o.AutoFill = &v
		set = true
	}
	if changed("provider") {
		v, _ := flags.GetString("provider")
		o.Provider = &v
		set = true
	}
	if changed("model") {
		v, _ := flags.GetString("model")
		o.Model = &v
		set = true
	}
	if v, _ := flags.GetBool("verbose"); v {
		lvl := "debug"
		o.LogLevel = &lvl
		set = true
	}
	if !set {
		return nil, nil
	}
	return o, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	repoRoot, err := repoRootFromCwd()
	if err != nil {
		return err
	}
	s, err := newSession(cmd, repoRoot)
	if err != nil {
		return err
	}
	defer s.log.Sync()

	gitDir, err := git.GitDir(cmd.Context(), repoRoot)
	if err != nil {
		return err
	}
	draftPath := filepath.Join(gitDir, deliver.DraftFileName)
	loop := &review.Loop{
		Snapshot:    s.snapshot(cmd.Context(), nil),
		Drafter:     s.drafter,
		Chooser:     chooserFor(cmd),
		CommitInput: deliver.DraftFile{Path: draftPath},
		Clipboard:   deliver.Clipboard{},
		Notifier:    s.notifier,
		Log:         s.log,
	}
	out := loop.Run(cmd.Context())
	if out.State == review.Accepted {
		fmt.Fprintf(cmd.OutOrStdout(), "Draft saved to %s\nCommit with: git commit -eF %s\n", draftPath, draftPath)
	}
	return exitForOutcome(cmd.ErrOrStderr(), out)
}

// exitForOutcome converts a terminal review state into the command result.
// Failures were already shown by the loop's notifier.
func exitForOutcome(stderr io.Writer, out review.Outcome) error {
	switch out.State {
	case review.Failed:
		if erruser.KindOf(out.Err) != erruser.KindNone {
			if u := errors.Unwrap(out.Err); u != nil {
				fmt.Fprintf(stderr, "Details: %v\n", u)
			}
		}
		if provider.KindOf(out.Err) != 0 {
			return errExit(exitProvider)
		}
		return errExit(1)
	case review.Cancelled:
		return errExit(exitCancelled)
	default:
		return nil
	}
}

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook <msg-file> [source] [sha]",
		Short: "prepare-commit-msg hook: draft a message into git's message file",
		Long: `Install with:

  printf '#!/bin/sh\nexec autocommit hook "$@"\n' > .git/hooks/prepare-commit-msg
  chmod +x .git/hooks/prepare-commit-msg

The hook does nothing when git already has a message (-m, -F, merge, squash, amend).
Failures are reported but never abort the commit.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: runHook,
	}
	addGenerationFlags(cmd, false)
	return cmd
}

func runHook(cmd *cobra.Command, args []string) error {
	msgFile := args[0]
	if len(args) > 1 && args[1] != "" {
		return nil
	}
	// Setup errors are reported like drafting failures so the commit proceeds.
	repoRoot, err := repoRootFromCwd()
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
		return nil
	}
	s, err := newSession(cmd, repoRoot)
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
		return nil
	}
	defer s.log.Sync()

	hookRouting := func(g *config.Generation) {
		g.CrossCheck = false
		g.AutoFill = true
	}
	loop := &review.Loop{
		Snapshot:    s.snapshot(cmd.Context(), hookRouting),
		Drafter:     s.drafter,
		CommitInput: deliver.DraftFile{Path: msgFile, KeepExisting: true},
		Notifier:    s.notifier,
		Log:         s.log,
	}
	out := loop.Run(cmd.Context())
	if out.State == review.Cancelled {
		return errExit(exitCancelled)
	}
	if out.State == review.Failed {
		s.log.Debug("hook draft failed; commit continues", "error", out.Err.Error())
	}
	return nil
}

// session holds the collaborators shared by generate and hook.
type session struct {
	repoRoot  string
	overrides *config.Overrides
	log       logging.Logger
	notifier  ui.Notifier
	drafter   *commitmsg.Drafter
}

func newSession(cmd *cobra.Command, repoRoot string) (*session, error) {
	overrides, err := overridesFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{RepoRoot: repoRoot, Overrides: overrides})
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log = log.WithValues("provider", cfg.Provider)
	quiet, _ := cmd.Flags().GetBool("quiet")
	notifier := ui.Notifier{Out: cmd.ErrOrStderr(), Quiet: quiet}

	var traceOut io.Writer
	if on, _ := cmd.Flags().GetBool("trace"); on {
		traceOut = cmd.ErrOrStderr()
	}
	estimate, err := tokens.ForEncoding(cfg.Tokenizer)
	if err != nil {
		log.Warn("tokenizer unavailable; using chars/4 estimate", "error", err.Error())
	}
	globalPath, err := config.GlobalPath()
	if err != nil {
		return nil, err
	}
	creds := credential.NewStore(globalPath, cfg.APIKey, ui.TerminalSecret{In: os.Stdin, Out: cmd.ErrOrStderr()})

	return &session{
		repoRoot:  repoRoot,
		overrides: overrides,
		log:       log,
		notifier:  notifier,
		drafter: &commitmsg.Drafter{
			RepoRoot:      repoRoot,
			Synthesizer:   newSynthesizer(cfg, log.WithName("provider")),
			Credentials:   creds,
			Progress:      notifier.Progress,
			Log:           log.WithName("draft"),
			Trace:         trace.New(traceOut),
			Estimate:      estimate,
			ContextLimit:  cfg.ContextLimit,
			WarnThreshold: cfg.WarnThreshold,
		},
	}, nil
}

// snapshot returns a loader that rereads configuration on every drafting
// attempt, so settings changed between attempts take effect. adjust, if set,
// rewrites the snapshot after loading.
func (s *session) snapshot(ctx context.Context, adjust func(*config.Generation)) func() (config.Generation, error) {
	return func() (config.Generation, error) {
		cfg, err := config.Load(ctx, config.LoadOptions{RepoRoot: s.repoRoot, Overrides: s.overrides})
		if err != nil {
			return config.Generation{}, err
		}
		gen := cfg.Generation()
		if adjust != nil {
			adjust(&gen)
		}
		return gen, nil
	}
}

func newSynthesizer(cfg *config.Config, log logging.Logger) provider.Synthesizer {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Provider == config.ProviderOllama {
		client := ollama.NewClient(cfg.OllamaBaseURL, httpClient)
		client.Log = log
		return &ollama.Synthesizer{
			Client:  client,
			Model:   cfg.OllamaModel,
			Options: &ollama.GenerateOptions{Temperature: cfg.Temperature, NumCtx: cfg.ContextLimit},
		}
	}
	client := gemini.NewClient(cfg.GeminiBaseURL, cfg.Model, httpClient)
	client.Log = log
	return client
}

// chooserFor uses the full-screen chooser on a terminal and a line prompt otherwise.
func chooserFor(cmd *cobra.Command) review.Chooser {
	if ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout) {
		return ui.TUIChooser{}
	}
	return ui.NewLineChooser(cmd.InOrStdin(), cmd.OutOrStdout())
}

func repoRootFromCwd() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", erruser.Environment("Could not determine current directory.", err)
	}
	return git.RepoRoot(cwd)
}

// optionalRepoRoot returns the repo root, or "" outside a repository.
func optionalRepoRoot() string {
	root, err := repoRootFromCwd()
	if err != nil {
		return ""
	}
	return root
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.PersistentFlags().Bool("repo", false, "Write to the repository's .autocommit/config.toml instead of the global file")
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist one setting (keys: " + strings.Join(config.Keys(), ", ") + ")",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runConfigSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <key>",
		Short: "Flip a boolean setting",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigToggle,
	})
	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	repoRoot := optionalRepoRoot()
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{RepoRoot: repoRoot})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if p, err := config.GlobalPath(); err == nil {
		fmt.Fprintf(w, "# global: %s\n", p)
	}
	if repoRoot != "" {
		fmt.Fprintf(w, "# repo:   %s\n", config.RepoPath(repoRoot))
	}
	customActive := cfg.UseCustomPrompt && strings.TrimSpace(cfg.CustomPrompt) != ""
	for _, key := range config.Keys() {
		v, _ := cfg.Value(key)
		line := formatValue(v)
		switch key {
		case "api_key":
			line = maskKey(cfg.APIKey)
		case "tone":
			if customActive {
				line += " (ignored: custom prompt active)"
			}
		case "custom_prompt":
			line = customPromptStatus(cfg)
		}
		fmt.Fprintf(w, "%-26s %s\n", key, line)
	}
	return nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ", ")
	case string:
		if t == "" {
			return `""`
		}
		return t
	default:
		return fmt.Sprint(t)
	}
}

func customPromptStatus(cfg *config.Config) string {
	configured := strings.TrimSpace(cfg.CustomPrompt) != ""
	switch {
	case configured && cfg.UseCustomPrompt:
		return "Active: " + cfg.CustomPrompt
	case configured:
		return "Configured (Inactive): " + cfg.CustomPrompt
	default:
		return "Not configured"
	}
}

func maskKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 4 {
		return "set"
	}
	return "set (****" + key[len(key)-4:] + ")"
}

func configTargetPath(cmd *cobra.Command) (string, error) {
	if repo, _ := cmd.Flags().GetBool("repo"); repo {
		root, err := repoRootFromCwd()
		if err != nil {
			return "", err
		}
		return config.RepoPath(root), nil
	}
	return config.GlobalPath()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], strings.Join(args[1:], " ")
	if key == "tone" {
		tone, ok := canonicalTone(value)
		if !ok {
			return unknownTone(value)
		}
		value = tone
	}
	path, err := configTargetPath(cmd)
	if err != nil {
		return err
	}
	if err := config.Persist(path, key, value); err != nil {
		return err
	}
	if key == "api_key" {
		value = maskKey(value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", key, value, path)
	return nil
}

func runConfigToggle(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !config.IsBoolKey(key) {
		return erruser.Configuration(fmt.Sprintf("%q is not a boolean setting.", key), nil)
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{RepoRoot: optionalRepoRoot()})
	if err != nil {
		return err
	}
	cur, _ := cfg.Value(key)
	on, _ := cur.(bool)
	path, err := configTargetPath(cmd)
	if err != nil {
		return err
	}
	next := fmt.Sprint(!on)
	if err := config.Persist(path, key, next); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", key, next, path)
	return nil
}

func newToneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tone [name]",
		Short: "List tones, or set the default tone",
		RunE:  runTone,
	}
	cmd.Flags().Bool("repo", false, "Write to the repository's .autocommit/config.toml instead of the global file")
	return cmd
}

func runTone(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if len(args) == 0 {
		cfg, err := config.Load(cmd.Context(), config.LoadOptions{RepoRoot: optionalRepoRoot()})
		if err != nil {
			return err
		}
		for _, name := range prompt.Tones() {
			mark := "  "
			if name == cfg.Tone {
				mark = "* "
			}
			fmt.Fprintf(w, "%s%s\n", mark, name)
		}
		return nil
	}
	name := strings.Join(args, " ")
	tone, ok := canonicalTone(name)
	if !ok {
		return unknownTone(name)
	}
	path, err := configTargetPath(cmd)
	if err != nil {
		return err
	}
	if err := config.Persist(path, "tone", tone); err != nil {
		return err
	}
	fmt.Fprintf(w, "Tone set to %s\n", tone)
	return nil
}

// canonicalTone matches name against the known tones ignoring case.
func canonicalTone(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if prompt.Known(name) {
		return name, true
	}
	for _, t := range prompt.Tones() {
		if strings.EqualFold(t, name) {
			return t, true
		}
	}
	return "", false
}

func unknownTone(name string) error {
	return erruser.Configuration(fmt.Sprintf("Unknown tone %q. Run `autocommit tone` to list tones.", name), nil)
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a Gemini API key to the global config",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
	cmd.Flags().Bool("stdin", false, "Read the key from the first line of stdin instead of prompting")
	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	path, err := config.GlobalPath()
	if err != nil {
		return err
	}
	store := credential.NewStore(path, "", ui.TerminalSecret{In: os.Stdin, Out: cmd.ErrOrStderr()})
	if fromStdin, _ := cmd.Flags().GetBool("stdin"); fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return erruser.Configuration(credential.DeclinedMessage, err)
		}
		if err := store.Set(line); err != nil {
			return err
		}
	} else if _, err := store.Acquire(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API key saved to %s\n", path)
	return nil
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify environment (Git, credentials, provider)",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
	return cmd
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	fmt.Fprintf(out, "autocommit %s\n", version.String())
	failed := false

	repoRoot, err := repoRootFromCwd()
	if err != nil {
		fmt.Fprintln(errOut, err.Error())
		failed = true
	} else {
		fmt.Fprintf(out, "Git repository: %s\n", repoRoot)
	}

	cfg, err := config.Load(cmd.Context(), config.LoadOptions{RepoRoot: repoRoot})
	if err != nil {
		return err
	}
	switch cfg.Provider {
	case config.ProviderOllama:
		client := ollama.NewClient(cfg.OllamaBaseURL, nil)
		result, err := client.Check(cmd.Context(), cfg.OllamaModel)
		if err != nil {
			if errors.Is(err, ollama.ErrUnreachable) {
				fmt.Fprintf(errOut, "Ollama unreachable at %s. Is the server running? For local: ollama serve.\n", cfg.OllamaBaseURL)
				fmt.Fprintf(errOut, "Details: %v\n", err)
				return errExit(exitProvider)
			}
			fmt.Fprintln(errOut, err.Error())
			return errExit(exitProvider)
		}
		if !result.ModelPresent {
			fmt.Fprintf(errOut, "Model %q not found. Pull it with: ollama pull %s\n", cfg.OllamaModel, cfg.OllamaModel)
			if len(result.ModelNames) > 0 {
				fmt.Fprintf(errOut, "Available models: %s\n", strings.Join(result.ModelNames, ", "))
			}
			return errExit(1)
		}
		fmt.Fprintln(out, "Ollama OK")
		fmt.Fprintf(out, "Model: %s\n", cfg.OllamaModel)
	default:
		if cfg.APIKey == "" {
			fmt.Fprintf(errOut, "%s Run: autocommit login\n", credential.DeclinedMessage)
			failed = true
		} else {
			fmt.Fprintf(out, "Gemini API key: %s\n", maskKey(cfg.APIKey))
		}
		fmt.Fprintf(out, "Model: %s\n", cfg.Model)
	}
	if failed {
		return errExit(1)
	}
	return nil
}
