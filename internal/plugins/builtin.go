// Package plugins registers the plugin types a build description can name.
package plugins

import (
	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/plugin"
	"git.home.luguber.info/inful/makeomatic/internal/plugins/command"
	"git.home.luguber.info/inful/makeomatic/internal/plugins/maketool"
	"git.home.luguber.info/inful/makeomatic/internal/plugins/natsnotify"
	"git.home.luguber.info/inful/makeomatic/internal/report"
	"git.home.luguber.info/inful/makeomatic/internal/scm"
)

// Type names of plugins defined outside this package's subpackages.
const (
	TypeReport = "report"
	TypeSCM    = "scm"
)

// Env carries what factories need beyond the plugin configuration.
type Env struct {
	SCM           scm.Options
	NATSConnector natsnotify.Connector
}

// SCMOptions are the options of the scm plugin type.
type SCMOptions struct {
	Source   string `yaml:"source"`
	Revision string `yaml:"revision"`
}

var configurationKinds = []engine.Kind{engine.KindConfiguration, engine.KindVariant}

// NewRegistry returns a registry holding every builtin plugin type.
func NewRegistry(env Env) *plugin.Registry {
	r := plugin.NewRegistry()
	Register(r, env)
	return r
}

// Register adds the builtin plugin types to r. It panics when a type is already present.
func Register(r *plugin.Registry, env Env) {
	r.MustRegister(plugin.Metadata{
		Type:        command.Type,
		Description: "adds configured actions to steps",
	}, func(cfg config.PluginConfig, base engine.BasePlugin) (engine.Plugin, error) {
		var opts command.Options
		if err := cfg.DecodeOptions(&opts); err != nil {
			return nil, err
		}
		return command.NewPlugin(base, opts)
	})

	r.MustRegister(plugin.Metadata{
		Type:        maketool.Type,
		Description: "configures, builds, tests and installs with make",
		Kinds:       configurationKinds,
	}, func(cfg config.PluginConfig, base engine.BasePlugin) (engine.Plugin, error) {
		opts := maketool.DefaultOptions()
		if err := cfg.DecodeOptions(&opts); err != nil {
			return nil, err
		}
		return maketool.NewPlugin(base, opts), nil
	})

	r.MustRegister(plugin.Metadata{
		Type:        TypeReport,
		Description: "writes JSON, Markdown and HTML build reports",
		Kinds:       []engine.Kind{engine.KindBuild},
	}, func(cfg config.PluginConfig, base engine.BasePlugin) (engine.Plugin, error) {
		var opts report.Options
		if err := cfg.DecodeOptions(&opts); err != nil {
			return nil, err
		}
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		p := report.NewPlugin(opts)
		p.BasePlugin = base
		return p, nil
	})

	r.MustRegister(plugin.Metadata{
		Type:        natsnotify.Type,
		Description: "publishes the build summary to NATS",
		Kinds:       []engine.Kind{engine.KindBuild},
	}, func(cfg config.PluginConfig, base engine.BasePlugin) (engine.Plugin, error) {
		var opts natsnotify.Options
		if err := cfg.DecodeOptions(&opts); err != nil {
			return nil, err
		}
		p, err := natsnotify.NewPlugin(opts, env.NATSConnector)
		if err != nil {
			return nil, err
		}
		p.BasePlugin = base
		return p, nil
	})

	r.MustRegister(plugin.Metadata{
		Type:        TypeSCM,
		Description: "checks out and packages project sources",
		Kinds:       []engine.Kind{engine.KindProject},
	}, func(cfg config.PluginConfig, base engine.BasePlugin) (engine.Plugin, error) {
		var opts SCMOptions
		if err := cfg.DecodeOptions(&opts); err != nil {
			return nil, err
		}
		if opts.Source == "" {
			return nil, errors.ConfigError("scm plugin needs a source").Build()
		}
		provider, err := scm.New(opts.Source, env.SCM)
		if err != nil {
			return nil, err
		}
		p := scm.NewPlugin(provider, opts.Revision)
		if cfg.Name != "" {
			p.PluginName = base.PluginName
		}
		p.Disabled = base.Disabled
		p.IsOptional = base.IsOptional
		return p, nil
	})
}
