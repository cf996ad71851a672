package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

var projectDecls = []StepDeclaration{
	{Name: "project-create-folders", BuildTypes: "mcdhpsf"},
	{Name: "project-checkout", BuildTypes: "mcdhpsf"},
	{Name: "project-package", BuildTypes: "dsf"},
	{Name: "project-cleanup", BuildTypes: "mcdsf", RunOnFailure: true},
}

func names(steps []*execution.Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Name())
	}
	return out
}

func enabled(steps []*execution.Step) []string {
	var out []string
	for _, s := range steps {
		if s.Enabled() {
			out = append(out, s.Name())
		}
	}
	return out
}

func TestComputeStepsByBuildType(t *testing.T) {
	cases := []struct {
		buildType string
		want      []string
	}{
		{"m", []string{"project-create-folders", "project-checkout", "project-cleanup"}},
		{"d", []string{"project-create-folders", "project-checkout", "project-package", "project-cleanup"}},
		{"h", []string{"project-create-folders", "project-checkout"}},
		{"e", nil},
	}
	for _, c := range cases {
		t.Run(c.buildType, func(t *testing.T) {
			steps, err := ComputeSteps(projectDecls, c.buildType, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"project-create-folders", "project-checkout", "project-package", "project-cleanup"}, names(steps))
			assert.Equal(t, c.want, enabled(steps))
		})
	}
}

func TestComputeStepsCarriesRunOnFailure(t *testing.T) {
	steps, err := ComputeSteps(projectDecls, "m", nil)
	require.NoError(t, err)
	assert.False(t, steps[0].RunOnFailure())
	assert.True(t, steps[3].RunOnFailure())
}

func TestEnableOverrideAddsStep(t *testing.T) {
	decls := []StepDeclaration{{Name: "a", BuildTypes: "m"}, {Name: "b", BuildTypes: "c"}}
	steps, err := Apply(decls, "m", "enable-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, enabled(steps))
	assert.Equal(t, []string{"a", "b"}, names(steps))
}

func TestSwitchesApplyLeftToRight(t *testing.T) {
	steps, err := Apply(projectDecls, "m", "disable-project-checkout,enable-project-checkout,enable-project-package,disable-project-package")
	require.NoError(t, err)
	assert.Equal(t, []string{"project-create-folders", "project-checkout", "project-cleanup"}, enabled(steps))

	steps, err = Apply(projectDecls, "m", "enable-project-checkout, disable-project-checkout,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"project-create-folders", "project-cleanup"}, enabled(steps))
}

func TestUnknownStepSwitchIsConfigurationError(t *testing.T) {
	switches, err := ParseSwitches("disable-project-checkout,enable-nope")
	require.NoError(t, err)

	steps, err := ComputeSteps(projectDecls, "m", switches)
	require.Error(t, err)
	assert.Nil(t, steps)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Equal(t, errors.ExitConfiguration, errors.ExitCode(err))
}

func TestParseSwitchesRejectsMalformedTokens(t *testing.T) {
	for _, spec := range []string{"toggle-a", "enable-", "a"} {
		_, err := ParseSwitches(spec)
		assert.True(t, errors.HasCategory(err, errors.CategoryConfig), spec)
	}
	switches, err := ParseSwitches("")
	require.NoError(t, err)
	assert.Empty(t, switches)
}

func TestBuildTypeValidation(t *testing.T) {
	for _, bt := range []string{"", "M", "mm", "1"} {
		_, err := ComputeSteps(projectDecls, bt, nil)
		assert.True(t, errors.HasCategory(err, errors.CategoryConfig), bt)
	}
}

func TestDuplicateDeclarationRejected(t *testing.T) {
	_, err := ComputeSteps([]StepDeclaration{{Name: "a"}, {Name: "a"}}, "m", nil)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestSelectKeepsOrderOfKnownSwitches(t *testing.T) {
	switches, err := ParseSwitches("enable-conf-make,disable-project-checkout,enable-project-checkout")
	require.NoError(t, err)

	selected := Select(projectDecls, switches)
	assert.Equal(t, []Switch{
		{Step: "project-checkout"},
		{Step: "project-checkout", Enable: true},
	}, selected)
}
