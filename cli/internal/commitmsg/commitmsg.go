// Package commitmsg drafts one commit message: it collects the diff, builds
// the prompt, calls the provider, and normalizes the reply.
package commitmsg

import (
	"context"
	"errors"

	"autocommit/cli/internal/config"
	"autocommit/cli/internal/diff"
	"autocommit/cli/internal/erruser"
	"autocommit/cli/internal/logging"
	"autocommit/cli/internal/normalize"
	"autocommit/cli/internal/prompt"
	"autocommit/cli/internal/provider"
	"autocommit/cli/internal/tokens"
	"autocommit/cli/internal/trace"
)

// Progress notices reported while drafting.
const (
	ProgressScanning = "Scanning workspace changes..."
	ProgressDrafting = "Drafting commit message..."
)

// NoChangesMessage is the warning shown when ErrNoChanges is returned.
const NoChangesMessage = "No staged or unstaged changes detected."

// ErrNoChanges means the filtered diff was empty; the provider is not called.
var ErrNoChanges = errors.New("no staged or unstaged changes")

// Credentials supplies the provider API key, prompting if necessary.
type Credentials interface {
	Acquire(ctx context.Context) (string, error)
}

// Drafter runs one drafting attempt per Draft call. Only RepoRoot and
// Synthesizer are required.
type Drafter struct {
	RepoRoot    string
	Synthesizer provider.Synthesizer
	// Credentials is consulted when the provider needs a key and the snapshot has none.
	Credentials Credentials
	// Progress receives ProgressScanning and ProgressDrafting.
	Progress func(string)
	Log      logging.Logger
	Trace    *trace.Tracer
	// Estimate counts prompt tokens for the context warning (nil = tokens.Estimate).
	Estimate      tokens.Estimator
	ContextLimit  int
	WarnThreshold float64
}

// Draft returns a normalized commit message for the current changes.
// It returns ErrNoChanges for an empty diff, erruser errors for environment
// and credential problems, and *provider.Error for provider failures.
func (d *Drafter) Draft(ctx context.Context, gen config.Generation) (string, error) {
	if d.Synthesizer == nil {
		return "", errors.New("commitmsg: nil synthesizer")
	}
	d.progress(ProgressScanning)
	payload, err := diff.Collect(ctx, d.RepoRoot, diff.Options{MaxChars: gen.MaxDiffChars, Exclude: gen.Exclude})
	if err != nil {
		return "", err
	}
	if payload.Empty() {
		return "", ErrNoChanges
	}
	if payload.Truncated {
		d.Log.Debug("diff truncated", "max_chars", gen.MaxDiffChars)
	}
	d.Trace.Block("Diff", payload.Text)

	text := prompt.Build(payload, gen).String()
	d.Trace.Block("Prompt", text)
	d.warnTokens(text)

	key := gen.APIKey
	if d.Synthesizer.NeedsAPIKey() && key == "" {
		if d.Credentials == nil {
			return "", erruser.Configuration("Gemini API key is required to generate commit messages.", nil)
		}
		key, err = d.Credentials.Acquire(ctx)
		if err != nil {
			return "", err
		}
	}

	d.progress(ProgressDrafting)
	raw, err := d.Synthesizer.Send(ctx, provider.Request{Prompt: text, APIKey: key})
	if err != nil {
		d.Log.Debug("provider call failed", "kind", provider.KindOf(err).String(), "error", err.Error())
		return "", err
	}
	d.Trace.Block("Response", raw)

	msg := normalize.Message(raw, normalize.Options{MaxBullets: gen.MaxBullets})
	d.Trace.Block("Message", msg)
	return msg, nil
}

func (d *Drafter) progress(msg string) {
	if d.Progress != nil {
		d.Progress(msg)
	}
}

func (d *Drafter) warnTokens(text string) {
	estimate := d.Estimate
	if estimate == nil {
		estimate = tokens.Estimate
	}
	n := estimate(text)
	d.Log.Debug("prompt built", "bytes", len(text), "tokens", n)
	if w := tokens.WarnIfOver(n, tokens.DefaultResponseReserve, d.ContextLimit, d.WarnThreshold); w != "" {
		d.Log.Warn(w)
	}
}
