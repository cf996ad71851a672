package scm

import (
	"context"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// LocalDir uses an existing directory as the sources. It has no revision history.
type LocalDir struct {
	dir string
}

func NewLocalDir(dir string) *LocalDir { return &LocalDir{dir: dir} }

func (l *LocalDir) Identifier() string { return ImplLocalDir }

func (l *LocalDir) Location() string { return l.dir }

func (l *LocalDir) CheckInstallation(context.Context) (string, error) {
	info, err := os.Stat(l.dir)
	if err != nil || !info.IsDir() {
		return "", errors.ConfigError("source directory does not exist").
			WithContext("path", l.dir).
			Build()
	}
	return "local directory " + l.dir, nil
}

// Checkout copies the directory into dest. Revisions are not supported.
func (l *LocalDir) Checkout(_ context.Context, revision, dest string) (string, error) {
	if revision != "" && revision != "HEAD" {
		return "", l.noRevisions()
	}
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "cannot create source directory").
			WithContext("path", dest).
			Build()
	}
	src, err := filepath.Abs(l.dir)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "invalid source directory").Build()
	}
	if err := os.CopyFS(dest, os.DirFS(src)); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "cannot copy sources").
			WithContext("path", src).
			WithContext("dest", dest).
			Build()
	}
	return "", nil
}

func (l *LocalDir) CurrentRevision(context.Context) (string, error) {
	return "", l.noRevisions()
}

func (l *LocalDir) RevisionsSince(context.Context, string, int) ([]Revision, error) {
	return nil, l.noRevisions()
}

func (l *LocalDir) RevisionInfo(context.Context, string) (Commit, error) {
	return Commit{}, l.noRevisions()
}

func (l *LocalDir) noRevisions() error {
	return errors.ConfigError("local directories have no revisions").
		WithContext("path", l.dir).
		Build()
}
