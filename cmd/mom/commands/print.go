package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/retry"
	"git.home.luguber.info/inful/makeomatic/internal/scm"
)

// PrintCmd implements the 'print' command.
type PrintCmd struct {
	CurrentRevision PrintCurrentRevisionCmd `cmd:"" name:"current-revision" help:"Print the most recent revision of a project"`
	RevisionsSince  PrintRevisionsSinceCmd  `cmd:"" name:"revisions-since" help:"Print the revisions committed after a revision"`
}

// projectFlag selects the project whose sources are queried.
type projectFlag struct {
	Project string `short:"p" help:"Project name (default: the first project with a source)"`
}

// provider creates the source control provider of the selected project.
func (f projectFlag) provider(cfg *config.Config) (scm.Provider, error) {
	for _, p := range cfg.Projects {
		if p.SCM == "" || (f.Project != "" && p.Name != f.Project) {
			continue
		}
		return scm.New(p.SCM, scm.Options{
			CloneCacheDir: cfg.Settings.CloneCacheDir,
			Retry:         retry.FromConfig(cfg.Retry),
		})
	}
	if f.Project != "" {
		return nil, errors.ConfigError("project not found or without a source").
			WithContext("project", f.Project).
			Build()
	}
	return nil, errors.ConfigError("no project has a source").Build()
}

func preparedProvider(ctx context.Context, g *Global, cli *CLI, f projectFlag) (scm.Provider, error) {
	cfg, err := loadConfig(g, cli)
	if err != nil {
		return nil, err
	}
	p, err := f.provider(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := p.CheckInstallation(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// PrintCurrentRevisionCmd implements 'print current-revision'.
type PrintCurrentRevisionCmd struct {
	projectFlag
}

func (c *PrintCurrentRevisionCmd) Run(g *Global, cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	p, err := preparedProvider(ctx, g, cli, c.projectFlag)
	if err != nil {
		return err
	}
	rev, err := p.CurrentRevision(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.Stdout, rev)
	return nil
}

// PrintRevisionsSinceCmd implements 'print revisions-since'.
type PrintRevisionsSinceCmd struct {
	projectFlag
	Revision string `arg:"" help:"Revision to list from (exclusive)"`
	Cap      int    `arg:"" optional:"" help:"Keep only the last N revisions"`
}

func (c *PrintRevisionsSinceCmd) Run(g *Global, cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	p, err := preparedProvider(ctx, g, cli, c.projectFlag)
	if err != nil {
		return err
	}
	revs, err := p.RevisionsSince(ctx, c.Revision, c.Cap)
	if err != nil {
		return err
	}
	if out := scm.FormatRevisions(p.Identifier(), revs); out != "" {
		fmt.Fprintln(g.Stdout, out)
	}
	return nil
}
