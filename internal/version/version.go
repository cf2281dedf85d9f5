// Package version holds build information, overridden at link time with
// -ldflags "-X github.com/yourusername/ytwrap-go/internal/version.Version=..."
package version

// Version is the release of this build
var Version = "1.0.0"

// Commit is the source revision of this build
var Commit = "unknown"
