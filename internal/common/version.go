package common

import (
	"fmt"
)

// GetVersion renders "v1.2.3 (git: abcdef12)" with the commit shortened.
func GetVersion() string {
	version, gitCommit, ok := GetModuleBuildInfo()
	if !ok {
		return "unknown"
	}
	if len(gitCommit) > 8 {
		gitCommit = gitCommit[:8]
	}
	if len(gitCommit) == 0 || gitCommit == "unknown" {
		return version
	}
	return fmt.Sprintf("%s (git: %s)", version, gitCommit)
}
