// Package version exposes build identity stamped in at link time.
package version

import "fmt"

// Build metadata. Overridden via -ldflags at release time:
//
//	go build -ldflags "-X github.com/autobear/autobear/pkg/version.Version=1.2.0 ..."
var (
	Version = "0.1.0-dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info captures the build identity for structured output.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// GetVersion returns the bare version string.
func GetVersion() string {
	return Version
}

// GetInfo returns the full build identity.
func GetInfo() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String renders the identity in one line for the version command.
func (i Info) String() string {
	return fmt.Sprintf("autobear %s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}
