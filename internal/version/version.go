// Package version provides build and version information for the
// playground binaries.
package version

import "fmt"

// Version and Commit can be overridden at build time:
//
//	go build -ldflags "-X github.com/AaronLay10/ScratchyEngine/internal/version.Version=x.y.z"
var (
	Version = "0.3.0"
	Commit  = "dev"
)

// String is the version line printed by --version.
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
