package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/plugins"
	"git.home.luguber.info/inful/makeomatic/internal/scm"
)

const description = `
build:
  name: nightly
  base_dir: /tmp/nightly
plugins:
  - type: report
projects:
  - name: engine
    scm: localdir:/src/engine
    steps:
      - step: project-create-docs
        actions:
          - run: [doxygen]
    configurations:
      - name: release
        plugins:
          - type: maketool
            options:
              jobs: 8
        variants:
          - name: asan
          - name: tsan
      - name: debug
`

func parse(t *testing.T, yml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yml))
	require.NoError(t, err)
	return cfg
}

func newBuilder() *TreeBuilder {
	return NewTreeBuilder(plugins.NewRegistry(plugins.Env{}), scm.Options{})
}

func pluginNames(n *engine.Node) []string {
	var names []string
	for _, p := range n.Plugins() {
		names = append(names, p.Name())
	}
	return names
}

func TestBuildTreeShape(t *testing.T) {
	root, err := newBuilder().Build(parse(t, description))
	require.NoError(t, err)

	assert.Equal(t, "nightly", root.Name())
	assert.Equal(t, engine.KindBuild, root.Kind())
	assert.Equal(t, []string{"report"}, pluginNames(root))

	require.Len(t, root.Children(), 1)
	project := root.Children()[0]
	assert.Equal(t, engine.KindProject, project.Kind())
	assert.Equal(t, []string{"scm-localdir", stepsPluginName}, pluginNames(project))

	require.Len(t, project.Children(), 2)
	release := project.Children()[0]
	assert.Equal(t, engine.KindConfiguration, release.Kind())
	assert.Equal(t, []string{"maketool"}, pluginNames(release))
	require.Len(t, release.Children(), 2)
	assert.Equal(t, engine.KindVariant, release.Children()[0].Kind())
	assert.Equal(t, "nightly/engine/release/tsan", release.Children()[1].Path())
	assert.Equal(t, "debug", project.Children()[1].Name())
}

func TestBuildRejectsPluginOnWrongKind(t *testing.T) {
	cfg := parse(t, `
build: {name: b}
plugins:
  - type: maketool
`)
	_, err := newBuilder().Build(cfg)
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfiguration, errors.ExitCode(err))
}

func TestBuildRejectsUnknownPlugin(t *testing.T) {
	cfg := parse(t, `
build: {name: b}
projects:
  - name: p
    plugins:
      - type: teleport
`)
	_, err := newBuilder().Build(cfg)
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfiguration, errors.ExitCode(err))
}

func TestBuildRejectsUnknownSCM(t *testing.T) {
	cfg := parse(t, `
build: {name: b}
projects:
  - name: p
    scm: cvs:/repo
`)
	_, err := newBuilder().Build(cfg)
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfiguration, errors.ExitCode(err))
}
