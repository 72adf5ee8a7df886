// Package normalize repairs raw provider text into the commit message grammar:
//
//	feat: <subject>
//	<blank line>
//	This commit:   (or "This commit introduces the following features:")
//	- <bullet>
//	...
//
// Message is total and idempotent: any input yields a conforming message and
// normalizing a normalized message returns it unchanged.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// Prefix starts every subject line.
	Prefix = "feat: "

	// IntroPlain is the default intro line before the bullets.
	IntroPlain = "This commit:"
	// IntroFeatures is kept when the raw intro line announces features.
	IntroFeatures = "This commit introduces the following features:"

	// Fallback is returned when the raw text has no usable lines.
	Fallback = "feat: Update\n\nThis commit:\n- Minor updates (unable to parse diff)."

	// MaxSubjectRunes caps a subject synthesized from a line lacking the prefix.
	MaxSubjectRunes = 72

	_emptySubject = "Update"
)

var (
	openFenceRe = regexp.MustCompile("^```[\\w-]*[ \\t]*(?:\\r?\\n|$)")
	prefixRe    = regexp.MustCompile(`(?i)^feat:\s*`)
	// markerRe finds a prefix or intro glued into the subject line.
	markerRe = regexp.MustCompile(`(?i)\bfeat:|\bthis commit(?: introduces the following features)?:`)
	bulletRe = regexp.MustCompile(`^(?:[-*•]|\d{1,3}[.)])\s+`)
)

// Options tunes Message. The zero value passes every bullet through.
type Options struct {
	// MaxBullets keeps only the first N bullets when > 0.
	MaxBullets int
}

// Message normalizes raw provider output. See the package doc for the grammar.
func Message(raw string, opts Options) string {
	lines := splitLines(stripFences(raw))
	if len(lines) == 0 {
		return Fallback
	}
	subject, rest := extractSubject(lines[0])
	if rest != "" {
		lines = append([]string{rest}, lines[1:]...)
	} else {
		lines = lines[1:]
	}
	return render(subject, Classify(lines), opts)
}

// stripFences removes one leading fence line and one trailing fence line, then trims.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	trimmed := strings.TrimRight(s, " \t\r\n")
	if idx := strings.LastIndex(trimmed, "\n"); idx >= 0 {
		if strings.TrimSpace(trimmed[idx+1:]) == "```" {
			s = trimmed[:idx]
		}
	} else if strings.TrimSpace(trimmed) == "```" {
		s = ""
	}
	return strings.TrimSpace(s)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// extractSubject returns the subject text (without prefix) and any text that
// followed a glued prefix or intro marker on the same line.
func extractSubject(line string) (subject, rest string) {
	synthesized := true
	subject = line
	if loc := prefixRe.FindStringIndex(line); loc != nil {
		subject = line[loc[1]:]
		synthesized = false
	}
	if loc := markerRe.FindStringIndex(subject); loc != nil {
		rest = strings.TrimSpace(subject[loc[0]:])
		subject = subject[:loc[0]]
	}
	if synthesized {
		subject = truncateRunes(subject, MaxSubjectRunes)
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = _emptySubject
	}
	return subject, rest
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func render(subject string, records []Record, opts Options) string {
	intro := ""
	var bullets []string
	for _, r := range records {
		switch r.Kind {
		case KindIntro:
			if intro == "" {
				intro = r.Text
			}
		case KindBullet:
			if opts.MaxBullets > 0 && len(bullets) >= opts.MaxBullets {
				continue
			}
			if content := strings.TrimSpace(WrapFileTokens(r.Text)); content != "" {
				bullets = append(bullets, content)
			}
		}
	}
	if intro == "" {
		intro = IntroPlain
	}
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(subject)
	b.WriteString("\n\n")
	b.WriteString(intro)
	for _, bullet := range bullets {
		b.WriteString("\n- ")
		b.WriteString(bullet)
	}
	return b.String()
}
