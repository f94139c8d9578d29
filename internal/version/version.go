// Package version provides the current release version and semver helpers
// used by the schema migrator.
package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the current release version of notegraph.
var Version = "0.3.1"

// DevVersion is the version suffix used in dev mode.
var DevVersion = fmt.Sprintf("%s-dev", Version)

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// GetSchemaVersion returns the schema version in "major.minor" form.
// Patch releases never change the schema.
func GetSchemaVersion(version string) string {
	v := strings.TrimSuffix(version, "-dev")
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return v
	}
	return strings.Join(parts[:2], ".") + ".0"
}

func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare("v"+version, "v"+target) >= 0
}

func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare("v"+version, "v"+target) > 0
}
