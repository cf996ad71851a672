package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/testutil"
)

type cliEnv struct {
	dir    string
	config string
}

func newEnv(t *testing.T, description string) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{dir: dir, config: filepath.Join(dir, "makeomatic.yaml")}
	require.NoError(t, os.WriteFile(env.config, []byte(description), 0o600))
	return env
}

func (e *cliEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Main(append([]string{"-c", e.config}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func localDescription(t *testing.T, docsScript string) string {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "README"), []byte("hi\n"), 0o600))
	base := filepath.Join(t.TempDir(), "demo")
	return `
build:
  name: demo
  base_dir: ` + base + `
settings:
  clone_cache_dir: ` + filepath.Join(t.TempDir(), "cache") + `
projects:
  - name: app
    scm: localdir:` + src + `
    steps:
      - step: project-create-docs
        actions:
          - script: "` + docsScript + `"
`
}

func TestBuildSucceeds(t *testing.T) {
	env := newEnv(t, localDescription(t, "true"))
	metricsFile := filepath.Join(env.dir, "metrics.prom")
	history := filepath.Join(env.dir, "history.db")

	code, out, stderr := env.run("build", "--metrics-file", metricsFile, "--history", history, "--build-id", "cli-1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Build demo success (return code 0)")

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "makeomatic_")

	code, out, stderr = env.run("history", "--history", history)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "cli-1")
	assert.Contains(t, out, "succeeded")
}

func TestBuildFailingStepExitsOne(t *testing.T) {
	env := newEnv(t, localDescription(t, "exit 7"))

	code, out, _ := env.run("build")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "failed: demo/app/project-create-docs")
}

func TestBuildDisabledStepSucceeds(t *testing.T) {
	env := newEnv(t, localDescription(t, "exit 7"))

	code, _, stderr := env.run("build", "--steps", "disable-project-create-docs")
	assert.Equal(t, 0, code, stderr)
}

// baseDirOf returns the base_dir a description written by localDescription points at.
func baseDirOf(t *testing.T, description string) string {
	t.Helper()
	for _, line := range strings.Split(description, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "base_dir: "); ok {
			return v
		}
	}
	t.Fatal("description has no base_dir")
	return ""
}

func TestBuildRejectsBadSwitches(t *testing.T) {
	description := localDescription(t, "true")
	env := newEnv(t, description)
	base := baseDirOf(t, description)

	for _, args := range [][]string{
		{"build", "--steps", "enable-no-such-step"},
		{"build", "--steps", "toggle-project-checkout"},
		{"build", "-t", "xy"},
	} {
		code, _, stderr := env.run(args...)
		assert.Equal(t, 2, code, "%v: %s", args, stderr)
		assert.NoDirExists(t, base, "%v created the base directory", args)
	}
}

func TestMissingDescriptionExitsTwo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main([]string{"-c", filepath.Join(t.TempDir(), "none.yaml"), "build"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "build description not found")
}

func TestQuery(t *testing.T) {
	env := newEnv(t, localDescription(t, "true"))

	code, out, _ := env.run("query", "project.buildtype")
	assert.Equal(t, 0, code)
	assert.Equal(t, "m\n", out)

	code, out, _ = env.run("query", "--list")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "make.jobs\n")

	code, _, _ = env.run("query", "no.such.key")
	assert.Equal(t, 2, code)
}

func TestDescribe(t *testing.T) {
	env := newEnv(t, localDescription(t, "true"))

	code, out, stderr := env.run("describe")
	require.Equal(t, 0, code, stderr)
	assert.True(t, strings.HasPrefix(out, "demo (build)\n"), out)
	assert.Contains(t, out, "  app (project)\n")
	assert.Contains(t, out, "step project-create-docs [enabled]")
	assert.Contains(t, out, "plugin scm-localdir [enabled]")
}

func TestPluginsLists(t *testing.T) {
	env := newEnv(t, localDescription(t, "true"))
	code, out, _ := env.run("plugins")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "maketool")
	assert.Contains(t, out, "configuration, variant")
}

func TestVersionFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main([]string{"--version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "unknown")
}

func TestPrintRevisions(t *testing.T) {
	remote, hashes := testutil.SeedRepo(t, "a", "b", "c")
	env := newEnv(t, `
build: {name: demo}
settings:
  clone_cache_dir: `+filepath.Join(t.TempDir(), "cache")+`
projects:
  - name: lib
    scm: git:`+remote+`
`)

	code, out, stderr := env.run("print", "current-revision")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, hashes[2]+"\n", out)

	code, out, stderr = env.run("print", "revisions-since", hashes[0])
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "C "+hashes[2]+" git:"+remote+"\nC "+hashes[1]+" git:"+remote+"\n", out)

	code, out, _ = env.run("print", "revisions-since", hashes[0], "1")
	require.Equal(t, 0, code)
	assert.Equal(t, 1, strings.Count(out, "\n"))

	code, _, _ = env.run("print", "current-revision", "-p", "nope")
	assert.Equal(t, 2, code)
}
