package version

import "fmt"

// Version is the product version, overridable at build time via
// -ldflags "-X github.com/tracebot-dev/tracebot/internal/version.Version=...".
var Version = "1.2.3"

// UserAgent is the product string sent on every trace.moe request.
func UserAgent() string {
	return "tracebot/" + Version
}

// GetInfo returns a human-readable version line.
func GetInfo() string {
	return fmt.Sprintf("v%s", Version)
}
