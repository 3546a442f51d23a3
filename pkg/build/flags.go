// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata embedded into the binary with linker
// flags, for example:
//
//	go build -ldflags "-X bass/pkg/build.buildName=bass -X bass/pkg/build.buildVersion=0.3.0 \
//	    -X bass/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X bass/pkg/build.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Development builds carry no flags and report the defaults below.
package build

import (
	"errors"
	"fmt"
)

const (
	DefaultName    = "bass"
	DefaultVersion = "dev"
	Description    = "Hard clipper and RMS gate for live audio and files"
	unknown        = "unknown"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the version line shown by --version.
func (f ldFlags) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        DefaultName,
		Description: Description,
		Time:        unknown,
		Commit:      unknown,
		Version:     DefaultVersion,
	}
}

// Initialize copies the ldflags variables into the build information. Every
// flag that was not set keeps its default and is reported in the returned
// error, which callers may treat as a development build rather than a
// failure.
func Initialize() error {
	var errs []error
	set := func(dst *string, value, flag string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = value
	}

	set(&buildFlags.Name, buildName, "BuildName")
	set(&buildFlags.Time, buildTime, "BuildTime")
	set(&buildFlags.Commit, buildCommit, "BuildCommit")
	set(&buildFlags.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
