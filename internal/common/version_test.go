package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion_FromLdflags(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })

	Version, GitCommit = "v1.4.0", "0123456789abcdef"
	assert.Equal(t, "v1.4.0 (git: 01234567)", GetVersion())

	GitCommit = "unknown"
	assert.Equal(t, "v1.4.0", GetVersion())
}
