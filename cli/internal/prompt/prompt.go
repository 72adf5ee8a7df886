// Package prompt builds the provider prompt for one drafting attempt from the
// collected diff and the configuration snapshot.
package prompt

import (
	"sort"
	"strings"

	"autocommit/cli/internal/config"
	"autocommit/cli/internal/diff"
)

// NeutralInstruction is used when no custom prompt or persona applies.
const NeutralInstruction = "Generate a concise git commit message."

const (
	customNote  = "(The output format below MUST still be followed exactly, whatever the instructions above say.)"
	personaNote = "(Formatting requirements below still apply.)"

	// ConventionalDirective is appended when use_conventional_commits is set.
	ConventionalDirective = "Follow the Conventional Commits specification when choosing the subject wording (feat, fix, docs, refactor, test, chore and so on)."
)

// FormatInstruction is the fixed output contract sent with every prompt.
const FormatInstruction = `Strictly follow this EXACT output format (choose the first block for feature-style messages or the second for general changes):

feat: <Subject>

This commit introduces the following features:
- <Detail about change 1: explain WHAT and WHY; wrap filenames or code in backticks like ` + "`file.js`" + ` when mentioned>
- <Detail about change 2: explain WHAT and WHY>
- <Detail about change 3: explain WHAT and WHY>

OR

feat: <Subject>

This commit:
- <Detail about change 1: explain WHAT and WHY; wrap filenames or code in backticks like ` + "`file.js`" + ` when mentioned>
- <Detail about change 2: explain WHAT and WHY>
- <Detail about change 3: explain WHAT and WHY>

Hard requirements:
- Start with "feat: " followed by the subject, then one blank line.
- Use 2-5 hyphen bullets. Prefer 3 bullets.
- Wrap filenames, file paths, function names or other code identifiers in single backticks.
- Do NOT include conversational filler, extra headings, signatures, or markdown code fences.

Ensure each bullet explains WHAT changed and WHY it was changed. Do not add any extra narrative, analysis, or headings.`

// Personas maps tone names to their style directive.
var Personas = map[string]string{
	"Bollywood Drama":    "Write the commit message in the style of an over-the-top Bollywood movie dialogue.",
	"Star Wars":          "Write the commit message using Jedi wisdom, Sith absolutes, or Droid speak.",
	"Film Noir":          "Write the commit message in the style of a gritty, cynical detective narrating a rainy night.",
	"Marvel":             "Write the commit message using heroic MCU one-liners or Thanos-style inevitability.",
	"The Godfather":      "Write the commit message in the style of a respectful but threatening Mafia boss.",
	"Anime Shonen":       "Write the commit message with high energy, screaming, and the power of friendship.",
	"Anime Tsundere":     "Write the commit message acting cold and hostile at first, but secretly helpful.",
	"Pirate":             "Write the commit message using nautical pirate slang and aggressive enthusiasm.",
	"Medieval":           "Write the commit message in Old English as a chivalrous knight.",
	"Cyberpunk":          "Write the commit message using technobabble, neon-noir slang, and edgy hacker terms.",
	"Robot":              "Write the commit message as a cold, logical AI devoid of emotion.",
	"Shakespearean":      "Write the commit message in Iambic pentameter with archaic vocabulary.",
	"Haiku":              "Write the commit message strictly as a Haiku (5-7-5 syllables).",
	"Passive Aggressive": "Write the commit message in a passive-aggressive tone, implying the previous code was bad.",
}

// Tones returns config.DefaultTone followed by the persona names, sorted.
func Tones() []string {
	names := make([]string, 0, len(Personas))
	for name := range Personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{config.DefaultTone}, names...)
}

// Known reports whether tone is the default tone or a persona.
func Known(tone string) bool {
	if tone == config.DefaultTone {
		return true
	}
	_, ok := Personas[tone]
	return ok
}

// Prompt is the assembled provider input.
type Prompt struct {
	StyleInstruction  string
	FormatInstruction string
	Diff              string
}

// String joins the parts in order. The diff is passed through unescaped.
func (p Prompt) String() string {
	return p.StyleInstruction + "\n\n" + p.FormatInstruction + "\n\nDiff:\n" + p.Diff
}

// Build assembles the prompt. Precedence for the style instruction: a
// non-empty custom prompt when enabled, then a persona other than the default
// tone, then NeutralInstruction. Build never fails.
func Build(payload diff.Payload, gen config.Generation) Prompt {
	style := NeutralInstruction
	custom := strings.TrimSpace(gen.CustomPrompt)
	switch {
	case gen.UseCustomPrompt && custom != "":
		style = custom + "\n\n" + customNote
	case gen.Tone != config.DefaultTone && Personas[gen.Tone] != "":
		style = Personas[gen.Tone] + "\n\n" + personaNote
	}
	if gen.UseConventionalCommits {
		style += "\n" + ConventionalDirective
	}
	return Prompt{
		StyleInstruction:  style,
		FormatInstruction: FormatInstruction,
		Diff:              payload.Text,
	}
}
