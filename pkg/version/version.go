// Package version holds the build version, overridden at link time with
// -ldflags "-X swiftgo/pkg/version.Version=...".
package version

import "fmt"

var Version = "v0.3.1"

// UserAgent is sent with every network feed request.
func UserAgent() string {
	return fmt.Sprintf("swiftgo/%s (SimConnect traffic)", Version)
}
