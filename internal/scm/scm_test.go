package scm

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/testutil"
)

func TestParseDescription(t *testing.T) {
	impl, loc, err := ParseDescription("git:git@example.com:group/repo.git")
	require.NoError(t, err)
	assert.Equal(t, "git", impl)
	assert.Equal(t, "git@example.com:group/repo.git", loc)

	for _, bad := range []string{"", "nocolon", ":location"} {
		_, _, err := ParseDescription(bad)
		assert.True(t, errors.HasCategory(err, errors.CategoryConfig), bad)
	}
}

func TestNew(t *testing.T) {
	p, err := New("git:https://example.com/repo.git", Options{CloneCacheDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "git", p.Identifier())
	assert.Equal(t, "https://example.com/repo.git", p.Location())

	p, err = New("localdir:/srv/src", Options{})
	require.NoError(t, err)
	assert.Equal(t, "localdir", p.Identifier())

	_, err = New("svn:svn://example.com/repo", Options{})
	assert.Equal(t, errors.ExitConfiguration, errors.ExitCode(err))
	_, err = New("git:", Options{})
	assert.Equal(t, errors.ExitConfiguration, errors.ExitCode(err))
}

func TestFormatRevisions(t *testing.T) {
	out := FormatRevisions("git", []Revision{
		{Kind: "C", Hash: "abc", URL: "https://example.com/r.git"},
		{Kind: "C", Hash: "def", URL: "https://example.com/r.git"},
	})
	assert.Equal(t, "C abc git:https://example.com/r.git\nC def git:https://example.com/r.git", out)
	assert.Empty(t, FormatRevisions("git", nil))
}

func TestCapRevisions(t *testing.T) {
	revs := []Revision{{Hash: "3"}, {Hash: "2"}, {Hash: "1"}}
	assert.Equal(t, revs, capRevisions(revs, 0))
	assert.Equal(t, revs, capRevisions(revs, 5))
	assert.Equal(t, []Revision{{Hash: "2"}, {Hash: "1"}}, capRevisions(revs, 2))
}

func TestGitRevisions(t *testing.T) {
	remote, hashes := testutil.SeedRepo(t, "a.txt", "b.txt", "c.txt")
	g := NewGit(remote, Options{CloneCacheDir: t.TempDir()})

	desc, err := g.CheckInstallation(t.Context())
	require.NoError(t, err)
	assert.Contains(t, desc, "go-git")

	current, err := g.CurrentRevision(t.Context())
	require.NoError(t, err)
	assert.Equal(t, hashes[2], current)
	assert.DirExists(t, g.MirrorPath())

	since, err := g.RevisionsSince(t.Context(), hashes[0], 0)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, hashes[2], since[0].Hash)
	assert.Equal(t, hashes[1], since[1].Hash)
	assert.Equal(t, "C", since[0].Kind)
	assert.Equal(t, remote, since[0].URL)

	capped, err := g.RevisionsSince(t.Context(), hashes[0], 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, hashes[1], capped[0].Hash)

	_, err = g.RevisionsSince(t.Context(), "no-such-revision", 0)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	info, err := g.RevisionInfo(t.Context(), hashes[1])
	require.NoError(t, err)
	assert.Equal(t, "add b.txt", info.Summary())
	assert.Equal(t, "Dev <dev@example.com>", info.Committer)
}

func TestGitCheckout(t *testing.T) {
	remote, hashes := testutil.SeedRepo(t, "a.txt", "b.txt")
	g := NewGit(remote, Options{CloneCacheDir: t.TempDir()})

	dest := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(dest, 0o750))
	built, err := g.Checkout(t.Context(), "", dest)
	require.NoError(t, err)
	assert.Equal(t, hashes[1], built)
	assert.FileExists(t, filepath.Join(dest, "b.txt"))

	built, err = g.Checkout(t.Context(), hashes[0], dest)
	require.NoError(t, err)
	assert.Equal(t, hashes[0], built)
	assert.NoFileExists(t, filepath.Join(dest, "b.txt"))
}

func TestGitMirrorFailureIsSCMError(t *testing.T) {
	g := NewGit(filepath.Join(t.TempDir(), "missing"), Options{CloneCacheDir: t.TempDir()})
	_, err := g.CurrentRevision(t.Context())
	require.Error(t, err)
	assert.Equal(t, errors.ExitBuildFailed, errors.ExitCode(err))
	assert.NoDirExists(t, g.MirrorPath())
}

func TestLocalDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "f.txt"), []byte("x"), 0o600))
	l := NewLocalDir(src)

	_, err := l.CheckInstallation(t.Context())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "src")
	_, err = l.Checkout(t.Context(), "", dest)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "sub", "f.txt"))

	_, err = l.Checkout(t.Context(), "v1.0", filepath.Join(t.TempDir(), "x"))
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	_, err = l.CurrentRevision(t.Context())
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = NewLocalDir(filepath.Join(src, "missing")).CheckInstallation(t.Context())
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestArchive(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, ".git"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("ref"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lib"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib", "x.c"), []byte("int x;"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "README"), []byte("hi"), 0o600))

	dest := filepath.Join(t.TempDir(), "packages", "proj-src.tar.gz")
	require.NoError(t, Archive(src, dest, "proj"))
	assert.NoFileExists(t, dest+".partial")

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	contents := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		if hdr.Typeflag == tar.TypeReg {
			b, err := io.ReadAll(tr)
			require.NoError(t, err)
			contents[hdr.Name] = string(b)
		}
	}
	sort.Strings(names)
	assert.Equal(t, []string{"proj/README", "proj/lib/", "proj/lib/x.c"}, names)
	assert.Equal(t, "int x;", contents["proj/lib/x.c"])
}
