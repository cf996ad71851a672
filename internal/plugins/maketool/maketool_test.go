package maketool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/process"
)

// fakeTool installs an executable named fakemake that answers --version and appends its
// working directory and arguments to a log file.
func fakeTool(t *testing.T) (dir, log string) {
	t.Helper()
	dir = t.TempDir()
	log = filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"--version\" ]; then echo 'FakeMake 4.4'; echo 'extra'; exit 0; fi\n" +
		"echo \"$(pwd -P) $*\" >> " + log + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fakemake"), []byte(script), 0o755))
	return dir, log
}

func buildTree(t *testing.T, p engine.Plugin) (*engine.Node, *engine.Node) {
	t.Helper()
	root := engine.NewNode("build", engine.KindBuild)
	root.SetBaseDir(t.TempDir())
	project := engine.NewNode("app", engine.KindProject)
	conf := engine.NewNode("release", engine.KindConfiguration)
	conf.AddPlugin(p)
	require.NoError(t, root.AddChild(project))
	require.NoError(t, project.AddChild(conf))
	return root, conf
}

func TestPluginRunsMakeInBuildDir(t *testing.T) {
	toolDir, log := fakeTool(t)
	settings := config.DefaultSettings()
	settings.ProjectSteps = nil
	settings.SearchPaths = []string{toolDir}
	settings.Jobs = 3

	p := NewPlugin(engine.BasePlugin{}, Options{
		Tool:          "fakemake",
		Configure:     []string{"fakemake", "configure", "--prefix={target}"},
		TestTarget:    "test",
		InstallTarget: "install",
	})
	root, conf := buildTree(t, p)
	proc := process.New()

	require.NoError(t, engine.New(&settings, proc).Run(t.Context(), root))
	assert.Equal(t, 0, proc.ReturnCode())
	assert.Equal(t, "FakeMake 4.4", p.Version())

	base, err := conf.BaseDir()
	require.NoError(t, err)
	realBase, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)
	buildDir := filepath.Join(realBase, "build")

	data, err := os.ReadFile(log)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		buildDir + " configure --prefix=" + filepath.Join(base, "target"),
		buildDir + " -j3",
		buildDir + " test",
		buildDir + " install",
	}, lines)
}

func TestPluginWithoutTargets(t *testing.T) {
	toolDir, log := fakeTool(t)
	settings := config.DefaultSettings()
	settings.ProjectSteps = nil
	settings.SearchPaths = []string{toolDir}

	p := NewPlugin(engine.BasePlugin{}, Options{Tool: "fakemake", Args: []string{"V=1"}, Jobs: 2})
	root, conf := buildTree(t, p)

	require.NoError(t, engine.New(&settings, process.New()).Run(t.Context(), root))

	assert.True(t, conf.Step(StepConfigure).IsEmpty())
	assert.True(t, conf.Step(StepTest).IsEmpty())
	data, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Contains(t, string(data), " V=1 -j2\n")
}

func TestPluginMissingToolFailsPreFlight(t *testing.T) {
	settings := config.DefaultSettings()
	settings.ProjectSteps = nil
	p := NewPlugin(engine.BasePlugin{}, Options{Tool: "makeomatic-no-such-tool"})
	root, _ := buildTree(t, p)
	proc := process.New()

	err := engine.New(&settings, proc).Run(t.Context(), root)
	require.Error(t, err)
	assert.Equal(t, 2, proc.ReturnCode())
}

func TestNewPluginDefaults(t *testing.T) {
	p := NewPlugin(engine.BasePlugin{}, Options{})
	assert.Equal(t, "make", p.opts.Tool)
	assert.Equal(t, "--version", p.opts.VersionArg)
	assert.Equal(t, Type, p.Name())
	assert.Equal(t, []string{"make", "-j8"}, p.toolArgs("-j8"))

	p.version = "x"
	assert.Empty(t, p.Clone().(*Plugin).Version())
}
