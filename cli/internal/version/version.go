// Package version holds the autocommit version string. Default is "dev";
// release builds set it via:
//
//	go build -ldflags "-X autocommit/cli/internal/version.Version=v1.0.0 -X autocommit/cli/internal/version.Commit=abc1234"
package version

// Version is the autocommit version. Set at build time for releases.
var Version = "dev"

// Commit is the short git commit hash. Set at build time for dev builds via ldflags.
var Commit = ""

// String returns the version for display (--version, doctor).
// For dev builds with Commit set, returns "dev (abc1234)"; otherwise returns Version.
func String() string {
	if Version != "dev" || Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}

// UserAgent is sent on provider HTTP requests.
func UserAgent() string {
	if Version != "dev" || Commit == "" {
		return "autocommit/" + Version
	}
	return "autocommit/" + Version + "+" + Commit
}
