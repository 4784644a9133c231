// Package version holds build information and checks GitHub for newer releases.
package version

// Build information, set at link time:
//
//	go build -ldflags "-X github.com/oszuidwest/zwfm-audioctl/internal/version.Version=1.2.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)
