// Package version provides build-time version information for countryleaders.
//
// Variables in this package are set at build time using ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/countryleaders/internal/version.Version=1.0.0 ..."
//
// Binaries built with go install carry no ldflags; for those the module
// version and VCS settings embedded by the toolchain are used instead.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// Build-time variables set via ldflags
var (
	// Version is the semantic version (e.g., "1.0.0" or "1.0.0-dev.5+abc123")
	Version = "dev"

	// Commit is the git commit SHA
	Commit = "unknown"

	// Dirty indicates if the working tree had uncommitted changes
	Dirty = "false"

	// BuildDate is the UTC build timestamp in RFC3339 format
	BuildDate = "unknown"
)

// Info contains structured version information
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var (
	resolveOnce sync.Once
	resolved    Info
)

// Get returns the current version information
func Get() Info {
	resolveOnce.Do(func() {
		resolved = resolve(Version, Commit, Dirty, BuildDate, readBuildInfo())
	})
	return resolved
}

func readBuildInfo() *debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return bi
}

// resolve fills values left at their defaults from the embedded build info.
func resolve(version, commit, dirty, date string, bi *debug.BuildInfo) Info {
	info := Info{
		Version:   version,
		Commit:    commit,
		Dirty:     dirty == "true",
		BuildDate: date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi == nil {
		return info
	}

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			if dirty == "false" && s.Value == "true" {
				info.Dirty = true
			}
		}
	}
	return info
}

// String returns a single-line version string
func String() string {
	info := Get()
	if info.Dirty {
		return info.Version + "-dirty"
	}
	return info.Version
}

// Full returns a multi-line version string with all details
func Full() string {
	info := Get()
	var sb strings.Builder
	fmt.Fprintf(&sb, "countryleaders %s\n", String())
	fmt.Fprintf(&sb, "  Commit:     %s\n", info.Commit)
	if info.Dirty {
		sb.WriteString("  Dirty:      yes\n")
	}
	fmt.Fprintf(&sb, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(&sb, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(&sb, "  OS/Arch:    %s", info.Platform)
	return sb.String()
}
