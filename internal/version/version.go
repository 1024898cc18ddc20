// Package version reports build information for the odataq command and
// library.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags.
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string   `json:"version"`
	BuildDate string   `json:"build_date"`
	GitCommit string   `json:"git_commit"`
	GoVersion string   `json:"go_version"`
	Dirty     bool     `json:"dirty"`
	Module    string   `json:"module,omitempty"`
	Deps      []Module `json:"deps,omitempty"`
}

// Module is a dependency compiled into the binary.
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Info collects build information from the ldflags variables and the
// runtime. VCS settings recorded by the go tool fill in a missing commit.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Dirty:     strings.HasSuffix(GitCommit, "-dirty"),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	for _, dep := range bi.Deps {
		info.Deps = append(info.Deps, Module{Path: dep.Path, Version: dep.Version})
	}
	sort.Slice(info.Deps, func(i, j int) bool { return info.Deps[i].Path < info.Deps[j].Path })

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == unknownValue {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == unknownValue {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Dirty = info.Dirty || s.Value == "true"
		}
	}
	return info
}

// ShortCommit returns the abbreviated commit hash.
func (b BuildInfo) ShortCommit() string {
	if len(b.GitCommit) > commitHashLength && b.GitCommit != unknownValue {
		return b.GitCommit[:commitHashLength]
	}
	return b.GitCommit
}

// String renders the build information for humans.
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "odataq %s", b.Version)
	if !b.IsRelease() {
		sb.WriteString(" (development build)")
	}
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")
	if b.GitCommit != unknownValue {
		fmt.Fprintf(&sb, "Git Commit: %s\n", b.ShortCommit())
	}
	if b.BuildDate != unknownValue {
		fmt.Fprintf(&sb, "Build Date: %s\n", b.BuildDate)
	}
	fmt.Fprintf(&sb, "Go Version: %s\n", b.GoVersion)
	return sb.String()
}

// JSON renders the build information as indented JSON.
func (b BuildInfo) JSON() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// IsRelease reports whether the version names a tagged release rather than
// a development or pre-release build.
func (b BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.Contains(b.Version, "-")
}
