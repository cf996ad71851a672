// Package version holds build metadata reported by mom --version.
package version

// Version is set at link time:
// go build -ldflags "-X git.home.luguber.info/inful/makeomatic/internal/version.Version=v1.0.0".
var Version = "unknown"

// Build metadata, also set at link time.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line shown by the command line.
func String() string {
	return Version + " (" + GitCommit + ", " + BuildTime + ")"
}
