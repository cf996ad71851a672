package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/makeomatic/internal/eventstore"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/timekeeper"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Path  string `name:"history" help:"SQLite database (default: history.path of the build description)" type:"path"`
	Limit int    `short:"n" help:"Number of builds to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, cli *CLI) error {
	path := h.Path
	if path == "" {
		cfg, err := loadConfig(g, cli)
		if err != nil {
			return err
		}
		path = cfg.History.Path
	}
	if path == "" {
		return errors.ConfigError("no history database configured").Build()
	}
	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()
	projection := eventstore.NewBuildHistoryProjection(store, h.Limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BUILD ID\tNAME\tTYPE\tSTATUS\tCODE\tSTARTED\tDURATION")
	for _, b := range projection.GetHistory() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			b.BuildID, b.Name, b.BuildType, b.Status, b.ReturnCode,
			b.StartedAt.Local().Format(time.DateTime),
			timekeeper.FormatDuration(b.Duration))
	}
	return tw.Flush()
}
