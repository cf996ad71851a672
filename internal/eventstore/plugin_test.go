package eventstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/process"
	"git.home.luguber.info/inful/makeomatic/internal/sequencer"
)

type failStep struct {
	engine.BasePlugin
}

func (f *failStep) Setup(_ context.Context, hc *engine.HookContext) error {
	s, err := hc.Node.RequireStep("compile")
	if err != nil {
		return err
	}
	s.AddMainAction(execution.NewAction(execution.Func("compile", func(context.Context) error {
		return nil
	})))
	s, err = hc.Node.RequireStep("test")
	if err != nil {
		return err
	}
	s.AddMainAction(execution.NewAction(execution.Command("false")))
	return nil
}

func (f *failStep) Clone() engine.Plugin { return &failStep{} }

func TestPluginRecordsBuild(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	settings := config.DefaultSettings()
	settings.BuildSteps = []sequencer.StepDeclaration{
		{Name: "compile", BuildTypes: "m"},
		{Name: "test", BuildTypes: "m"},
	}
	root := engine.NewNode("nightly", engine.KindBuild)
	root.SetBaseDir(t.TempDir())
	root.AddPlugin(&failStep{})
	history := NewPlugin(store)
	root.AddPlugin(history)

	proc := process.New()
	require.NoError(t, engine.New(&settings, proc, engine.WithBuildID("b-1")).Run(t.Context(), root))
	assert.Equal(t, "b-1", history.BuildID())

	events, err := store.GetByBuildID(t.Context(), "b-1")
	require.NoError(t, err)
	var types []string
	for _, e := range events {
		types = append(types, e.Type())
	}
	assert.Equal(t, TypeBuildStarted, types[0])
	assert.Contains(t, types, TypeStepFinished)
	assert.Contains(t, types, TypeBuildFinished)
	assert.Equal(t, TypePhaseCompleted, types[len(types)-1])

	proj := NewBuildHistoryProjection(store, 5)
	require.NoError(t, proj.Rebuild(t.Context()))
	summary, found := proj.GetBuild("b-1")
	require.True(t, found)
	assert.Equal(t, StatusFailed, summary.Status)
	assert.Equal(t, 1, summary.ReturnCode)
	assert.Equal(t, []string{"nightly/test"}, summary.FailedSteps)
	assert.Equal(t, "shutDown", summary.LastPhase)
}

func TestPluginClone(t *testing.T) {
	p := NewPlugin(nil)
	p.buildID = "x"
	cp := p.Clone().(*Plugin)
	assert.Empty(t, cp.BuildID())
	assert.True(t, cp.Optional())
}
