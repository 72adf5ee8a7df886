package normalize

import (
	"regexp"
	"strings"
)

// FileExtensions lists the extensions whose tokens are wrapped in backticks.
var FileExtensions = []string{"js", "ts", "json", "md", "css", "html", "jsx", "tsx", "py", "java", "go", "c", "cpp"}

var (
	tokenRe    = regexp.MustCompile(`[\w\-/.]+`)
	fileNameRe = regexp.MustCompile(`^[\w\-/.]*[\w\-/]\.(?:` + strings.Join(FileExtensions, "|") + `)$`)
)

type piece struct {
	text string
	code bool
}

// WrapFileTokens wraps bare file-name tokens in single backticks. Text inside
// an existing code span is left alone. A backtick run with no closing run of
// the same length is dropped, and a token touching a code span is not wrapped,
// so the result contains only balanced spans and wrapping it again is a no-op.
func WrapFileTokens(s string) string {
	var b strings.Builder
	pieces := splitCodeSpans(s)
	for i, p := range pieces {
		if p.code {
			b.WriteString(p.text)
			continue
		}
		// A token glued to a span stays bare: `a`b.go wrapped would read as
		// `a``b.go`, one double-tick span, and a second pass would change it.
		prevCode := i > 0 && pieces[i-1].code
		nextCode := i+1 < len(pieces) && pieces[i+1].code
		b.WriteString(wrapText(p.text, prevCode, nextCode))
	}
	return b.String()
}

// splitCodeSpans separates s into plain text and code spans. A run of n
// backticks opens a span closed by the next run of exactly n backticks.
// Adjacent plain text is merged.
func splitCodeSpans(s string) []piece {
	var pieces []piece
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			pieces = append(pieces, piece{text: plain.String()})
			plain.Reset()
		}
	}
	i := 0
	for i < len(s) {
		if s[i] != '`' {
			plain.WriteByte(s[i])
			i++
			continue
		}
		n := runLen(s, i)
		end := closingRun(s, i+n, n)
		if end < 0 {
			i += n
			continue
		}
		flush()
		pieces = append(pieces, piece{text: s[i : end+n], code: true})
		i = end + n
	}
	flush()
	return pieces
}

func runLen(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

// closingRun returns the index of the next run of exactly n backticks at or after from, or -1.
func closingRun(s string, from, n int) int {
	for j := from; j < len(s); {
		if s[j] != '`' {
			j++
			continue
		}
		m := runLen(s, j)
		if m == n {
			return j
		}
		j += m
	}
	return -1
}

func wrapText(text string, prevCode, nextCode bool) string {
	locs := tokenRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		for end > start && text[end-1] == '.' {
			end--
		}
		if end == start || !fileNameRe.MatchString(text[start:end]) {
			continue
		}
		if (start == 0 && prevCode) || (end == len(text) && nextCode) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteByte('`')
		b.WriteString(text[start:end])
		b.WriteByte('`')
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
