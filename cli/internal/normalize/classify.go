package normalize

import "strings"

// Kind is the class of a body line.
type Kind int

const (
	// KindDiscard is narrative or commentary the grammar does not allow.
	KindDiscard Kind = iota
	// KindIntro is a body-intro line; Text holds the canonical literal.
	KindIntro
	// KindBullet is a list item; Text holds the content without its marker.
	KindBullet
)

func (k Kind) String() string {
	switch k {
	case KindIntro:
		return "intro"
	case KindBullet:
		return "bullet"
	default:
		return "discard"
	}
}

// Record is one classified body line.
type Record struct {
	Kind Kind
	Text string
}

// Classify maps body lines to records in order. Rules, first match wins:
// a leading "-", "*", "•", "1." or "1)" marker followed by whitespace makes a
// bullet; a line containing "this commit" (any case) is an intro; anything
// else is discarded.
func Classify(lines []string) []Record {
	out := make([]Record, 0, len(lines))
	for _, line := range lines {
		out = append(out, classifyLine(strings.TrimSpace(line)))
	}
	return out
}

func classifyLine(line string) Record {
	if loc := bulletRe.FindStringIndex(line); loc != nil {
		content := strings.TrimSpace(line[loc[1]:])
		if content == "" {
			return Record{Kind: KindDiscard, Text: line}
		}
		return Record{Kind: KindBullet, Text: content}
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "this commit") {
		if strings.Contains(lower, "introduces the following features") {
			return Record{Kind: KindIntro, Text: IntroFeatures}
		}
		return Record{Kind: KindIntro, Text: IntroPlain}
	}
	return Record{Kind: KindDiscard, Text: line}
}
