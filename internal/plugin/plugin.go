// Package plugin maps the plugin types a build description may name to the code that
// creates them.
package plugin

import (
	"fmt"
	"slices"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// Factory creates a plugin from its configuration. base carries the name and the
// enabled/optional flags already resolved from cfg; factories embed it in the plugin.
type Factory func(cfg config.PluginConfig, base engine.BasePlugin) (engine.Plugin, error)

// Metadata describes a plugin type.
type Metadata struct {
	// Type is the name used in build descriptions, e.g. "maketool".
	Type string

	Description string

	// Kinds lists the node kinds the plugin may be attached to. Empty means any.
	Kinds []engine.Kind
}

// String returns a human-readable representation of the plugin metadata.
func (m Metadata) String() string {
	if m.Description == "" {
		return m.Type
	}
	return fmt.Sprintf("%s (%s)", m.Type, m.Description)
}

// Validate checks if the plugin metadata is valid.
func (m Metadata) Validate() error {
	if m.Type == "" {
		return errors.InternalError("plugin type is required").Build()
	}
	return nil
}

// Allows reports whether the plugin may be attached to a node of kind k.
func (m Metadata) Allows(k engine.Kind) bool {
	return len(m.Kinds) == 0 || slices.Contains(m.Kinds, k)
}
