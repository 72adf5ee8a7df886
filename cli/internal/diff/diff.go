// Package diff collects a bounded diff of the working copy for drafting a
// commit message.
//
// # Source
// Staged changes are preferred. When the index matches HEAD, unstaged changes
// are used instead. Untracked files are never included; git diff does not
// report them.
//
// # Exclusions
// Exclude patterns are applied twice: as git pathspecs, so excluded files are
// never read, and again per "diff --git" section of the output. The default
// pattern is package-lock.json so lock-file churn never drives the message.
//
// # Empty diff
// When both queries are empty after trimming, Collect returns the zero
// Payload and no error. Callers warn instead of failing.
//
// # Bound
// Text longer than MaxChars characters (runes) is cut after the last kept
// rune and TruncationMarker is appended.
package diff

import (
	"context"
	"path"
	"strings"

	"autocommit/cli/internal/erruser"
	"autocommit/cli/internal/git"
)

// DefaultMaxChars bounds the diff sent to the provider.
const DefaultMaxChars = 8000

// TruncationMarker is appended to a diff cut at MaxChars.
const TruncationMarker = "\n...[Diff truncated due to length]..."

// DefaultExclude is used when Options.Exclude is nil.
var DefaultExclude = []string{"package-lock.json"}

// Payload is the diff for one drafting attempt.
type Payload struct {
	Text      string
	Truncated bool
}

// Empty reports whether there were no changes to describe.
func (p Payload) Empty() bool {
	return p.Text == ""
}

// Options configures Collect. The zero value uses DefaultMaxChars and DefaultExclude.
type Options struct {
	// MaxChars is the character (rune) bound before the truncation marker (0 = DefaultMaxChars).
	MaxChars int
	// Exclude lists paths or globs dropped from the diff. Nil means DefaultExclude;
	// an empty non-nil slice excludes nothing.
	Exclude []string
}

func (o Options) maxChars() int {
	if o.MaxChars <= 0 {
		return DefaultMaxChars
	}
	return o.MaxChars
}

func (o Options) exclude() []string {
	if o.Exclude == nil {
		return DefaultExclude
	}
	return o.Exclude
}

// Collect returns the bounded diff of the working copy at root. It fails with
// an Environment error when root is empty or not a git working tree.
func Collect(ctx context.Context, root string, opts Options) (Payload, error) {
	if root == "" {
		return Payload{}, erruser.Environment("No workspace folder found.", nil)
	}
	ok, err := git.IsWorkTree(ctx, root)
	if err != nil {
		return Payload{}, err
	}
	if !ok {
		return Payload{}, erruser.Environment("Not inside a Git repository.", nil)
	}
	exclude := opts.exclude()

	text, err := git.Diff(ctx, root, true, exclude)
	if err != nil {
		return Payload{}, erruser.New("Could not read staged changes.", err)
	}
	text = strings.TrimSpace(FilterSections(text, exclude))
	if text == "" {
		text, err = git.Diff(ctx, root, false, exclude)
		if err != nil {
			return Payload{}, erruser.New("Could not read unstaged changes.", err)
		}
		text = strings.TrimSpace(FilterSections(text, exclude))
	}
	if text == "" {
		return Payload{}, nil
	}
	return Bound(text, opts.maxChars()), nil
}

// Bound cuts text to at most max runes and appends TruncationMarker when
// anything was cut.
func Bound(text string, max int) Payload {
	cut, ok := truncateRunes(text, max)
	if !ok {
		return Payload{Text: text}
	}
	return Payload{Text: cut + TruncationMarker, Truncated: true}
}

// truncateRunes returns the first limit runes of s and whether s was longer.
func truncateRunes(s string, limit int) (string, bool) {
	if limit < 0 {
		limit = 0
	}
	if len(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// FilterSections drops every "diff --git" section whose path matches one of
// patterns. Text before the first section header is kept as-is.
func FilterSections(diffOutput string, patterns []string) string {
	if len(patterns) == 0 || strings.TrimSpace(diffOutput) == "" {
		return diffOutput
	}
	var b strings.Builder
	for _, section := range splitByFileSections(diffOutput) {
		if p := sectionPath(section); p != "" && matchesAny(p, patterns) {
			continue
		}
		b.WriteString(section)
	}
	return b.String()
}

// matchesAny matches p against each pattern, first as a full path and then
// against its base name, so "package-lock.json" matches "web/package-lock.json".
func matchesAny(p string, patterns []string) bool {
	for _, pat := range patterns {
		pat = strings.TrimPrefix(strings.TrimSpace(pat), "**/")
		pat = strings.TrimPrefix(pat, "/")
		if pat == "" {
			continue
		}
		if ok, err := path.Match(pat, p); err == nil && ok {
			return true
		}
		if ok, _ := path.Match(pat, path.Base(p)); ok {
			return true
		}
		if strings.HasSuffix(pat, "/**") && strings.HasPrefix(p, strings.TrimSuffix(pat, "**")) {
			return true
		}
	}
	return false
}
