// Package version reports build metadata. Release builds stamp the variables
// with -ldflags; otherwise the toolchain's VCS stamp fills what it can.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the resolved metadata for this binary.
type Info struct {
	Version  string
	Commit   string
	Date     string
	Go       string
	Modified bool
}

// Current merges the stamped variables with the embedded build info.
func Current() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, Go: runtime.Version()}
	if build, ok := debug.ReadBuildInfo(); ok {
		info.merge(build)
	}
	return info
}

func (i *Info) merge(build *debug.BuildInfo) {
	if i.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		i.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if i.Commit == "" {
				i.Commit = setting.Value[:min(12, len(setting.Value))]
			}
		case "vcs.time":
			if i.Date == "" {
				i.Date = setting.Value
			}
		case "vcs.modified":
			i.Modified = setting.Value == "true"
		}
	}
}

func (i Info) String() string {
	commit := orUnknown(i.Commit)
	if i.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("cakemic %s (commit=%s, date=%s, go=%s)", i.Version, commit, orUnknown(i.Date), i.Go)
}

// String is the one-line banner printed by `cakemic version`.
func String() string {
	return Current().String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
