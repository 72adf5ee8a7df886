// Package git (repo.go) provides repository discovery helpers.
package git

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"autocommit/cli/internal/erruser"
)

// RepoRoot returns the absolute path of the git repository root containing dir.
// Runs "git rev-parse --show-toplevel" with Dir=dir. Returns an Environment
// error if dir is not inside a git repository.
func RepoRoot(dir string) (string, error) {
	if dir == "" {
		return "", erruser.Environment("No working directory to search for a Git repository.", nil)
	}
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.Environment("This directory is not inside a Git repository.", err)
	}
	root := strings.TrimSpace(string(out))
	return filepath.Abs(root)
}

// IsWorkTree reports whether root is inside a git working tree. Runs
// "git rev-parse --is-inside-work-tree". A bare repository, a .git directory,
// or a directory outside any repository all report false with a nil error;
// only a missing git binary or a cancelled context return an error.
func IsWorkTree(ctx context.Context, root string) (bool, error) {
	out, err := runGit(ctx, root, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if _, lookErr := exec.LookPath("git"); lookErr != nil {
			return false, erruser.Environment("Git is not installed or not on PATH.", lookErr)
		}
		return false, nil
	}
	return strings.TrimSpace(out) == "true", nil
}

// GitDir returns the absolute path of the repository's git directory
// (e.g. /repo/.git, or the per-worktree directory for linked worktrees).
func GitDir(ctx context.Context, root string) (string, error) {
	out, err := runGit(ctx, root, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", erruser.Environment("Could not locate the Git directory.", err)
	}
	return strings.TrimSpace(out), nil
}
