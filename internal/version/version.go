// Package version provides the semantic version of the server build.
package version

import "fmt"

var (
	// Version is the released version string.
	Version = "0.3.1"
	// DevVersion is the version suffix used outside prod mode.
	DevVersion = "0.3.2"
)

// GetCurrentVersion returns the effective version for the given mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return fmt.Sprintf("%s-%s", DevVersion, mode)
	}
	return Version
}
