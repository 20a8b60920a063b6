// Package internal holds build information shared by the trustlist binaries.
package internal

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Set with -ldflags at release time.
var (
	Branch     = "main"
	Version    = "0.1.0"
	Prerelease = ""
	Metadata   = "dev"
	Commit     = ""
	Date       = ""
)

// FullVersion returns the semver version of the build. Development builds
// report the next patch version so that they sort after the last release.
func FullVersion() string {
	v, err := semver.NewVersion(Version)
	if err != nil {
		panic(fmt.Sprintf("invalid version %v: %v", Version, err))
	}

	if Metadata == "dev" {
		*v = v.IncPatch()
	}

	*v, _ = v.SetPrerelease(Prerelease)
	*v, _ = v.SetMetadata(Metadata)

	return v.String()
}

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string `header:"VERSION"`
	Branch  string `header:"BRANCH"`
	Commit  string `header:"COMMIT"`
	Date    string `header:"DATE"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version: FullVersion(),
		Branch:  Branch,
		Commit:  Commit,
		Date:    Date,
	}
}
