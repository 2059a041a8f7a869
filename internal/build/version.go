package build

// These vars are overridden at link time via -ldflags
// "-X github.com/go-actors/actorcore/internal/build.Commit=...". They default
// to placeholders so `go run`/local builds still work.
var (
	// Commit is the git commit this binary was built from.
	Commit string

	// CommitHash is kept for backward-compatible ldflags scripts that
	// still set this name instead of Commit.
	CommitHash string

	// Version is the semantic version of this binary.
	Version = "dev"

	// GoVersion is the Go toolchain version this binary was built with,
	// set at build time since runtime/debug.BuildInfo isn't always
	// populated the same way across build methods (bazel vs go build).
	GoVersion string
)

// CommitInfo returns Commit if set, falling back to CommitHash, falling
// back to "dev" if neither was stamped at link time.
func CommitInfo() string {
	if Commit != "" {
		return Commit
	}
	if CommitHash != "" {
		return CommitHash
	}
	return "dev"
}
