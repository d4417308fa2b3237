// Package version carries build metadata injected via -ldflags.
package version

import "fmt"

var (
	// Version is the release tag or git describe result.
	Version = "dev"
	// Commit is the short git commit hash for this build.
	Commit = "unknown"
	// Date is the RFC3339 timestamp when the binary was built.
	Date = "unknown"
)

// String returns a human readable version summary.
func String() string {
	return fmt.Sprintf("untappd-mcp %s (commit %s, built %s)", Version, Commit, Date)
}
