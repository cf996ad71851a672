package scm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/makeomatic/internal/metrics"
	"git.home.luguber.info/inful/makeomatic/internal/retry"
)

// Provider gives access to the sources of one project.
type Provider interface {
	// Identifier is the implementation part of the description, e.g. "git".
	Identifier() string
	// Location is the implementation specific part of the description.
	Location() string
	// CheckInstallation verifies the provider can be used and describes it.
	CheckInstallation(ctx context.Context) (string, error)
	// Checkout places the sources at revision into dest. An empty revision means the
	// most recent one.
	Checkout(ctx context.Context, revision, dest string) (string, error)
	CurrentRevision(ctx context.Context) (string, error)
	// RevisionsSince lists the revisions committed after revision, newest first. A
	// positive limit keeps only the last limit entries of that list.
	RevisionsSince(ctx context.Context, revision string, limit int) ([]Revision, error)
	RevisionInfo(ctx context.Context, revision string) (Commit, error)
}

// Revision is one entry of a revisions-since listing.
type Revision struct {
	// Kind is "C" for a commit.
	Kind string
	Hash string
	URL  string
}

// Commit describes a single revision.
type Commit struct {
	Hash      string
	Committer string
	Time      time.Time
	Message   string
}

// Summary is the first line of the commit message.
func (c Commit) Summary() string {
	first, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return first
}

// Options are shared by all providers created for one build.
type Options struct {
	// CloneCacheDir holds local mirrors of remote repositories.
	CloneCacheDir string
	Retry         retry.Policy
	Recorder      metrics.Recorder
}

// FormatRevisions renders revisions one per line as "<kind> <hash> <identifier>:<url>".
func FormatRevisions(identifier string, revisions []Revision) string {
	lines := make([]string, 0, len(revisions))
	for _, r := range revisions {
		lines = append(lines, fmt.Sprintf("%s %s %s:%s", r.Kind, r.Hash, identifier, r.URL))
	}
	return strings.Join(lines, "\n")
}

// capRevisions keeps the last limit entries when limit is positive.
func capRevisions(revisions []Revision, limit int) []Revision {
	if limit > 0 && len(revisions) > limit {
		return revisions[len(revisions)-limit:]
	}
	return revisions
}
