// Package version holds build metadata for the cinedex binaries,
// stamped via -ldflags by the release build. The addon manifest
// reports Version with the leading "v" stripped.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
