package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Diff returns the unified diff of the working tree at root. When staged is
// true it diffs the index against HEAD ("git diff --cached"); otherwise the
// working tree against the index. Each exclude entry is a path or glob
// relative to the repository root; it is matched at any depth, so
// "package-lock.json" also drops "web/package-lock.json".
func Diff(ctx context.Context, root string, staged bool, exclude []string) (string, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff"}
	if staged {
		args = append(args, "--cached")
	}
	args = append(args, "--")
	args = append(args, ExcludePathspecs(exclude)...)
	out, err := runGit(ctx, root, args...)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ExcludePathspecs converts exclude patterns into git pathspecs. A leading "."
// pathspec is always included so the result is never exclude-only.
func ExcludePathspecs(exclude []string) []string {
	specs := []string{"."}
	for _, p := range exclude {
		p = strings.TrimSpace(strings.TrimPrefix(p, "/"))
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "**/") {
			p = "**/" + p
		}
		specs = append(specs, ":(exclude,glob)"+p)
	}
	return specs
}

// runGit runs git in dir and returns stdout. stderr is folded into the error.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}
