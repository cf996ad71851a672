package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/makeomatic/internal/plugins"
)

// PluginsCmd implements the 'plugins' command.
type PluginsCmd struct{}

func (p *PluginsCmd) Run(g *Global) error {
	for _, m := range plugins.NewRegistry(plugins.Env{}).List() {
		kinds := "any node"
		if len(m.Kinds) > 0 {
			names := make([]string, len(m.Kinds))
			for i, k := range m.Kinds {
				names[i] = k.String()
			}
			kinds = strings.Join(names, ", ")
		}
		fmt.Fprintf(g.Stdout, "%-12s %s [%s]\n", m.Type, m.Description, kinds)
	}
	return nil
}
