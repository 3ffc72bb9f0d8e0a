// Package version provides build version information.
package version

// These variables are set at build time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Full returns the version string including commit and build time.
func Full() string {
	return Version + " (" + GitCommit + ") built at " + BuildTime
}
