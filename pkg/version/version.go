// Package version exposes the filemill build version.
package version

// version is overridden at build time:
//
//	go build -ldflags "-X github.com/filemill/filemill/pkg/version.version=v1.2.3"
//
//nolint:gochecknoglobals // set via ldflags
var version = "0.3.0-dev"

// GetVersion returns the current filemill version string.
func GetVersion() string {
	return version
}
