// Package version holds the build-time version string, overridable via
// -ldflags "-X github.com/streammd/streammd/internal/version.Version=...".
package version

// Version is printed by --version and included in the summary log line.
var Version = "dev"
