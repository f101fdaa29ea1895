package common

import (
	"runtime/debug"
)

// Version and GitCommit can be set via ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func GetModuleBuildInfo() (string, string, bool) {
	if Version != "dev" {
		return Version, GitCommit, true
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		gitCommit := "unknown"
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				gitCommit = setting.Value
				break
			}
		}
		return info.Main.Version, gitCommit, true
	}
	return "", "", false
}
