package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionStrings(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, Revision)
	assert.NotEmpty(t, AppName)

	short := Short()
	assert.Contains(t, short, Version)
	assert.Contains(t, short, Revision)

	shortApp := ShortWithApp()
	assert.True(t, strings.HasPrefix(shortApp, AppName+" "))

	detailed := Detailed()
	assert.Contains(t, detailed, Version)
	assert.Contains(t, detailed, "/") // GOOS/GOARCH part
}

func TestApplyBuildInfo(t *testing.T) {
	origVersion, origRevision, origBuildDate := Version, Revision, BuildDate
	t.Cleanup(func() {
		Version, Revision, BuildDate = origVersion, origRevision, origBuildDate
	})

	t.Run("populates defaults", func(t *testing.T) {
		Version = devVersion
		Revision = "HEAD"
		BuildDate = ""

		applyBuildInfo("v9.9.9", map[string]string{
			"vcs.revision": "abcdef1234567890",
			"vcs.modified": "true",
			"vcs.time":     "2025-12-12T01:00:00Z",
		})

		assert.Equal(t, "9.9.9", Version)
		assert.Equal(t, "abcdef1234567890-dirty", Revision)
		assert.Equal(t, "2025-12-12T01:00:00Z", BuildDate)
	})

	t.Run("ldflags win", func(t *testing.T) {
		Version = "1.2.3"
		Revision = "deadbeef"
		BuildDate = "from-ldflags"

		applyBuildInfo("v9.9.9", map[string]string{
			"vcs.revision": "abcdef",
			"vcs.time":     "2025-12-12T01:00:00Z",
		})

		assert.Equal(t, "1.2.3", Version)
		assert.Equal(t, "deadbeef", Revision)
		assert.Equal(t, "from-ldflags", BuildDate)
	})
}
