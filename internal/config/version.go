package config

import (
	"fmt"
	"runtime/debug"
)

// Stamped by the release build through -ldflags
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// SetBuildFlags records the values main received from the linker
func SetBuildFlags(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
}

// BuildInfo describes the running pledge binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion,omitempty"`
}

// CurrentBuild returns the stamped values. A `go install` build carries no
// stamps, so its commit and date come from the VCS settings go embeds.
func CurrentBuild() BuildInfo {
	b := BuildInfo{Version: Version, Commit: Commit, Date: Date}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	b.GoVersion = info.GoVersion
	return b.withVCS(info.Settings)
}

func (b BuildInfo) withVCS(settings []debug.BuildSetting) BuildInfo {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" {
				b.Commit = s.Value
				if len(b.Commit) > 12 {
					b.Commit = b.Commit[:12]
				}
			}
		case "vcs.time":
			if b.Date == "unknown" {
				b.Date = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" && b.Version == "dev" {
				b.Version = "dev+dirty"
			}
		}
	}
	return b
}

func (b BuildInfo) String() string {
	s := fmt.Sprintf("pledge %s (commit %s, built %s)", b.Version, b.Commit, b.Date)
	if b.GoVersion != "" {
		s += " " + b.GoVersion
	}
	return s
}
