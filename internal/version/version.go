// Package version holds the client version stamped into every payload.
package version

import (
	"fmt"
	"runtime"
)

// Build information, set at build time:
//
//	go build -ldflags "-X github.com/bluefermion/feedback-capture/internal/version.Version=1.4.0"
var (
	Version    = "0.1.0"
	CommitHash = "dev"
	BuildTime  = "unknown"
)

// Info contains version and build information.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("feedback %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
}
