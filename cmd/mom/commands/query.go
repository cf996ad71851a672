package commands

import (
	"fmt"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// QueryCmd implements the 'query' command.
type QueryCmd struct {
	Key  string `arg:"" optional:"" help:"Setting name, e.g. project.buildtype"`
	List bool   `short:"l" help:"List every setting name"`
}

func (q *QueryCmd) Run(g *Global, cli *CLI) error {
	cfg, err := loadConfig(g, cli)
	if err != nil {
		return err
	}
	if q.List {
		for _, k := range cfg.Settings.Keys() {
			fmt.Fprintln(g.Stdout, k)
		}
		return nil
	}
	if q.Key == "" {
		return errors.ConfigError("a setting name or --list is required").Build()
	}
	v, err := cfg.Settings.Get(q.Key)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.Stdout, v)
	return nil
}
