package git

import (
	"os"
	"runtime"
)

// passthroughEnv is forwarded when set. Inside hooks git points these at the
// index and repository being committed, e.g. a temporary index for "git commit -a".
var passthroughEnv = []string{"GIT_INDEX_FILE", "GIT_DIR", "GIT_WORK_TREE"}

func minimalEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_PAGER=cat", // prevent pager; subprocess output is captured
	}
	for _, name := range passthroughEnv {
		if v := os.Getenv(name); v != "" {
			env = append(env, name+"="+v)
		}
	}
	if home := os.Getenv("HOME"); home != "" {
		env = append(env, "HOME="+home)
	} else if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			env = append(env, "HOME="+profile)
		}
	}
	return env
}

// MinimalEnv returns the environment used for git subprocesses. Exported for tests
// so callers can assert HOME is included when set (e.g. to avoid "Author identity unknown").
func MinimalEnv() []string {
	return minimalEnv()
}
