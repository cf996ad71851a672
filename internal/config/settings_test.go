package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "m", s.BuildType)
	require.Len(t, s.ProjectSteps, 10)
	assert.Equal(t, "project-create-folders", s.ProjectSteps[0].Name)
	assert.Equal(t, "project-cleanup", s.ProjectSteps[9].Name)
	assert.True(t, s.ProjectSteps[9].RunOnFailure)
	assert.Equal(t, "conf-cleanup", s.ConfigurationSteps[len(s.ConfigurationSteps)-1].Name)
	assert.Len(t, s.BuildTypeDescriptions, 8)
	assert.True(t, strings.HasPrefix(s.BuildTypeDescription(), "Manual build."))
}

func TestSettingsGet(t *testing.T) {
	s := DefaultSettings()
	s.Extra = map[string]string{"custom.key": "value"}

	v, err := s.Get("project.buildtype")
	require.NoError(t, err)
	assert.Equal(t, "m", v)

	v, err = s.Get("project.srcdir")
	require.NoError(t, err)
	assert.Equal(t, "src", v)

	v, err = s.Get("project.buildsteps")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v, "project-create-folders:mcdhpsf:false,"))

	v, err = s.Get("custom.key")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = s.Get("no.such.key")
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	keys := s.Keys()
	assert.Contains(t, keys, "custom.key")
	assert.Contains(t, keys, "make.jobs")
	assert.IsIncreasing(t, keys)
}

func TestUnknownBuildTypeDescription(t *testing.T) {
	s := DefaultSettings()
	s.BuildType = "z"
	assert.Equal(t, "Unknown build type.", s.BuildTypeDescription())
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel(" WARNING "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("chatty"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))
	assert.Equal(t, RetryBackoffLinear, NormalizeRetryBackoff("Linear"))
	assert.Empty(t, NormalizeRetryBackoff("random"))
}
