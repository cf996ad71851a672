package scm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/process"
	"git.home.luguber.info/inful/makeomatic/internal/sequencer"
	"git.home.luguber.info/inful/makeomatic/internal/testutil"
)

func TestPluginChecksOutAndPackages(t *testing.T) {
	remote, hashes := testutil.SeedRepo(t, "main.c")
	settings := config.DefaultSettings()
	settings.ProjectSteps = []sequencer.StepDeclaration{
		{Name: "project-create-folders", BuildTypes: "m"},
		{Name: StepCheckout, BuildTypes: "m"},
		{Name: StepPackage, BuildTypes: "m"},
	}
	settings.ConfigurationSteps = nil

	base := t.TempDir()
	root := engine.NewNode("build", engine.KindBuild)
	root.SetBaseDir(base)
	project := engine.NewNode("hello", engine.KindProject)
	plugin := NewPlugin(NewGit(remote, Options{CloneCacheDir: t.TempDir()}), "")
	project.AddPlugin(plugin)
	require.NoError(t, root.AddChild(project))
	proc := process.New()

	require.NoError(t, engine.New(&settings, proc).Run(t.Context(), root))

	assert.Equal(t, 0, proc.ReturnCode())
	projectBase, err := project.BaseDir()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(projectBase, "src", "main.c"))
	assert.FileExists(t, filepath.Join(base, "packages", "hello-src.tar.gz"))
	assert.Equal(t, hashes[0], plugin.BuiltRevision())
}

func TestPluginFailsPreFlightForMissingDir(t *testing.T) {
	settings := config.DefaultSettings()
	root := engine.NewNode("build", engine.KindBuild)
	root.SetBaseDir(t.TempDir())
	project := engine.NewNode("hello", engine.KindProject)
	project.AddPlugin(NewPlugin(NewLocalDir(filepath.Join(os.TempDir(), "makeomatic-does-not-exist")), ""))
	require.NoError(t, root.AddChild(project))
	proc := process.New()

	err := engine.New(&settings, proc).Run(t.Context(), root)
	require.Error(t, err)
	assert.Equal(t, 2, proc.ReturnCode())
}

func TestPluginClone(t *testing.T) {
	p := NewPlugin(NewLocalDir("/src"), "v1")
	p.built = "abc"
	cp := p.Clone().(*Plugin)
	assert.Empty(t, cp.BuiltRevision())
	assert.Same(t, p.Provider(), cp.Provider())
	assert.Equal(t, "scm-localdir", cp.Name())
}
