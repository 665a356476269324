package version

var (
	// Version is the release version baked in at build time (ldflags).
	// The fallback tracks the latest tagged release.
	Version = "v0.3.1"

	// Commit is the git short hash of the build.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)
