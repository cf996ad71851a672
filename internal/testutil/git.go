// Package testutil holds helpers shared by tests of several packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SetupTestGitRepo initializes a temporary git repository for testing.
// Returns the repository, its worktree, and the absolute path to the temporary directory.
func SetupTestGitRepo(t *testing.T) (*git.Repository, *git.Worktree, string) {
	t.Helper()

	tempDir := t.TempDir()

	repo, err := git.PlainInit(tempDir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	return repo, w, tempDir
}

// SeedRepo creates a repository with one commit per file, in order. Each file contains
// its own name. It returns the repository path and the commit hashes, oldest first.
func SeedRepo(t *testing.T, files ...string) (string, []string) {
	t.Helper()
	_, wt, dir := SetupTestGitRepo(t)

	hashes := make([]string, 0, len(files))
	for i, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		h, err := wt.Commit("add "+name+"\n\nbody", &git.CommitOptions{Author: &object.Signature{
			Name:  "Dev",
			Email: "dev@example.com",
			When:  time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
		}})
		if err != nil {
			t.Fatalf("failed to commit %s: %v", name, err)
		}
		hashes = append(hashes, h.String())
	}
	return dir, hashes
}
