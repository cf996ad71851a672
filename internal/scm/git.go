package scm

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/metrics"
	"git.home.luguber.info/inful/makeomatic/internal/nodename"
)

// mirrorRefSpecs keep every branch and tag of the mirror in step with the remote.
var mirrorRefSpecs = []gitconfig.RefSpec{
	"+refs/heads/*:refs/heads/*",
	"+refs/tags/*:refs/tags/*",
}

// Git serves a remote repository through a bare mirror kept in the clone cache. Checkouts
// are cloned from the mirror so the remote is contacted once per build.
type Git struct {
	url  string
	opts Options
}

// NewGit returns a provider for the repository at url.
func NewGit(url string, opts Options) *Git {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Git{url: url, opts: opts}
}

func (g *Git) Identifier() string { return ImplGit }

func (g *Git) Location() string { return g.url }

// MirrorPath is the directory of the bare mirror of this repository.
func (g *Git) MirrorPath() string {
	return filepath.Join(g.opts.CloneCacheDir, nodename.Folder(g.url))
}

// CheckInstallation makes sure the clone cache is usable.
func (g *Git) CheckInstallation(context.Context) (string, error) {
	if g.opts.CloneCacheDir == "" {
		return "", errors.ConfigError("no clone cache directory configured").Build()
	}
	if err := os.MkdirAll(g.opts.CloneCacheDir, 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "cannot create clone cache directory").
			WithContext("path", g.opts.CloneCacheDir).
			Build()
	}
	return "go-git v5, mirrors in " + g.opts.CloneCacheDir, nil
}

// UpdateMirror creates the mirror or fetches new revisions into it. Transient failures are
// retried according to the retry policy.
func (g *Git) UpdateMirror(ctx context.Context) (*git.Repository, error) {
	var repo *git.Repository
	err := g.opts.Retry.Do(ctx, "git-mirror", g.opts.Recorder, func(ctx context.Context) error {
		r, err := g.updateMirrorOnce(ctx)
		repo = r
		return err
	})
	return repo, err
}

func (g *Git) updateMirrorOnce(ctx context.Context) (*git.Repository, error) {
	path := g.MirrorPath()
	info, statErr := os.Stat(path)
	switch {
	case statErr == nil && !info.IsDir():
		return nil, errors.SCMError("mirror path exists but is not a directory").
			WithContext("path", path).
			Build()
	case statErr == nil:
		repo, err := git.PlainOpen(path)
		if err != nil {
			return nil, classifyGitError("open", g.url, err)
		}
		if err := g.fetch(ctx, repo); err != nil {
			return nil, err
		}
		slog.Debug("Updated mirror", logfields.URL(g.url), logfields.Path(path))
		return repo, nil
	default:
		repo, err := git.PlainCloneContext(ctx, path, true, &git.CloneOptions{URL: g.url})
		if err != nil {
			_ = os.RemoveAll(path)
			return nil, classifyGitError("clone", g.url, err)
		}
		if err := g.fetch(ctx, repo); err != nil {
			return nil, err
		}
		slog.Info("Created mirror", logfields.URL(g.url), logfields.Path(path))
		return repo, nil
	}
}

func (g *Git) fetch(ctx context.Context, repo *git.Repository) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   mirrorRefSpecs,
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return classifyGitError("fetch", g.url, err)
	}
	return nil
}

// Checkout updates the mirror, clones it into dest and checks out revision. An existing
// clone in dest is fetched into instead.
func (g *Git) Checkout(ctx context.Context, revision, dest string) (string, error) {
	if _, err := g.UpdateMirror(ctx); err != nil {
		return "", err
	}
	if revision == "" {
		revision = "HEAD"
	}

	repo, err := git.PlainOpen(dest)
	switch {
	case err == nil:
		ferr := repo.FetchContext(ctx, &git.FetchOptions{RemoteName: git.DefaultRemoteName, Tags: git.AllTags, Force: true})
		if ferr != nil && !stderrors.Is(ferr, git.NoErrAlreadyUpToDate) {
			return "", classifyGitError("fetch", g.MirrorPath(), ferr)
		}
	case stderrors.Is(err, git.ErrRepositoryNotExists):
		repo, err = git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{URL: g.MirrorPath()})
		if err != nil {
			return "", classifyGitError("clone", g.MirrorPath(), err)
		}
	default:
		return "", classifyGitError("open", dest, err)
	}

	hash, err := resolve(repo, revision)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", classifyGitError("checkout", g.url, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return "", classifyGitError("checkout", g.url, err)
	}
	slog.Info("Checked out sources",
		logfields.URL(g.url),
		logfields.Revision(hash.String()),
		logfields.Path(dest))
	return hash.String(), nil
}

func resolve(repo *git.Repository, revision string) (plumbing.Hash, error) {
	h, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return plumbing.ZeroHash, errors.WrapError(err, errors.CategoryConfig, "unknown revision").
			WithContext("revision", revision).
			Build()
	}
	return *h, nil
}

// CurrentRevision is the hash HEAD of the remote points to.
func (g *Git) CurrentRevision(ctx context.Context) (string, error) {
	repo, err := g.UpdateMirror(ctx)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", classifyGitError("head", g.url, err)
	}
	return head.Hash().String(), nil
}

// RevisionsSince walks the history of HEAD until it reaches revision.
func (g *Git) RevisionsSince(ctx context.Context, revision string, limit int) ([]Revision, error) {
	repo, err := g.UpdateMirror(ctx)
	if err != nil {
		return nil, err
	}
	since, err := resolve(repo, revision)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, classifyGitError("head", g.url, err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, classifyGitError("log", g.url, err)
	}
	defer iter.Close()

	var revisions []Revision
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == since {
			return storer.ErrStop
		}
		revisions = append(revisions, Revision{Kind: "C", Hash: c.Hash.String(), URL: g.url})
		return nil
	})
	if err != nil {
		return nil, classifyGitError("log", g.url, err)
	}
	return capRevisions(revisions, limit), nil
}

// RevisionInfo describes revision, "HEAD" when empty.
func (g *Git) RevisionInfo(ctx context.Context, revision string) (Commit, error) {
	repo, err := g.UpdateMirror(ctx)
	if err != nil {
		return Commit{}, err
	}
	if revision == "" {
		revision = "HEAD"
	}
	hash, err := resolve(repo, revision)
	if err != nil {
		return Commit{}, err
	}
	c, err := repo.CommitObject(hash)
	if err != nil {
		return Commit{}, classifyGitError("show", g.url, err)
	}
	return Commit{
		Hash:      c.Hash.String(),
		Committer: c.Committer.Name + " <" + c.Committer.Email + ">",
		Time:      c.Committer.When,
		Message:   c.Message,
	}, nil
}

// classifyGitError maps go-git failures to SCM errors. Network timeouts and rate limits
// are retryable, everything else is permanent.
func classifyGitError(op, url string, err error) error {
	l := strings.ToLower(err.Error())
	b := errors.WrapError(err, errors.CategorySCM, "git "+op+" failed").
		WithContext("url", url)

	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") ||
		strings.Contains(l, "invalid username or password"):
		return b.WithContext("reason", "auth").UserAction().Build()
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return b.WithContext("reason", "not_found").Build()
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		return b.WithContext("reason", "unsupported_protocol").Build()
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		return b.WithContext("reason", "rate_limit").Retryable().Build()
	case strings.Contains(l, "timeout"):
		return b.WithContext("reason", "network_timeout").Retryable().Build()
	}
	var nerr net.Error
	if stderrors.As(err, &nerr) && nerr.Timeout() {
		return b.WithContext("reason", "network_timeout").Retryable().Build()
	}
	return b.Build()
}
