package diff

import (
	"bufio"
	"strings"
)

const sectionPrefix = "diff --git "

// splitByFileSections splits diff output at every line that starts with
// "diff --git " so each section is one file's diff (or one binary notice).
// Concatenating the result yields the input unchanged.
func splitByFileSections(out string) []string {
	if out == "" {
		return nil
	}
	var starts []int
	if strings.HasPrefix(out, sectionPrefix) {
		starts = append(starts, 0)
	}
	for i := 0; ; {
		j := strings.Index(out[i:], "\n"+sectionPrefix)
		if j < 0 {
			break
		}
		i += j + 1
		starts = append(starts, i)
	}
	if len(starts) == 0 {
		return []string{out}
	}
	var sections []string
	if starts[0] > 0 {
		sections = append(sections, out[:starts[0]])
	}
	for k, s := range starts {
		end := len(out)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		sections = append(sections, out[s:end])
	}
	return sections
}

// sectionPath returns the file path of a "diff --git" section (the b/ side,
// falling back to the a/ side for deletions). Returns "" for text that is not
// a file section.
func sectionPath(section string) string {
	if !strings.HasPrefix(section, sectionPrefix) {
		return ""
	}
	scanner := bufio.NewScanner(strings.NewReader(section))
	var pathA, pathB string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, sectionPrefix):
			pathA, pathB = parseDiffGitLine(line)
		case strings.HasPrefix(line, "--- "):
			if p := parsePathLine(line, "--- "); p != "/dev/null" && pathA == "" {
				pathA = p
			}
		case strings.HasPrefix(line, "+++ "):
			if p := parsePathLine(line, "+++ "); p != "/dev/null" {
				pathB = p
			}
		case strings.HasPrefix(line, "@@"):
			return pick(pathA, pathB)
		}
	}
	return pick(pathA, pathB)
}

func pick(a, b string) string {
	if b != "" && b != "/dev/null" {
		return b
	}
	return a
}

func parseDiffGitLine(line string) (a, b string) {
	// "diff --git a/path b/path"
	rest := strings.TrimPrefix(line, sectionPrefix)
	parts := strings.Fields(rest)
	if len(parts) >= 2 {
		a = trimDiffPath(parts[0])
		b = trimDiffPath(parts[1])
	}
	return a, b
}

func trimDiffPath(s string) string {
	if len(s) >= 2 && (s[0] == 'a' || s[0] == 'b') && s[1] == '/' {
		return s[2:]
	}
	return s
}

func parsePathLine(line, prefix string) string {
	s := strings.TrimPrefix(line, prefix)
	// "/dev/null" or "a/path" or "b/path"
	if idx := strings.Index(s, "\t"); idx >= 0 {
		s = s[:idx]
	}
	return trimDiffPath(s)
}
