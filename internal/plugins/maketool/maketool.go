// Package maketool drives a make-style build tool for configurations.
//
// PreFlightCheck verifies the tool is installed. Setup fills the configuration steps:
// conf-configure runs the configure command, conf-make builds with -j<jobs>, and
// conf-make-test and conf-make-install run the test and install targets. All commands
// run in the configuration build directory.
package maketool

import (
	"context"
	"log/slog"
	"strconv"

	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/plugins/command"
)

// Type is the registry name of the plugin.
const Type = "maketool"

// Steps the plugin adds actions to.
const (
	StepConfigure = "conf-configure"
	StepMake      = "conf-make"
	StepTest      = "conf-make-test"
	StepInstall   = "conf-make-install"
)

// Options configure the tool. Configure, Args and the targets may use the placeholders
// of package command.
type Options struct {
	Tool          string   `yaml:"tool"`
	VersionArg    string   `yaml:"version_arg"`
	Configure     []string `yaml:"configure"`
	Args          []string `yaml:"args"`
	TestTarget    string   `yaml:"test_target"`
	InstallTarget string   `yaml:"install_target"`
	Jobs          int      `yaml:"jobs"`
}

// DefaultOptions builds with make and runs the usual test and install targets.
func DefaultOptions() Options {
	return Options{
		Tool:          "make",
		VersionArg:    "--version",
		TestTarget:    "test",
		InstallTarget: "install",
	}
}

// Plugin adds make actions to configuration steps.
type Plugin struct {
	engine.BasePlugin
	opts    Options
	version string
}

// NewPlugin fills an unset tool and version argument from DefaultOptions. Empty targets
// stay empty and their steps get no action.
func NewPlugin(base engine.BasePlugin, opts Options) *Plugin {
	def := DefaultOptions()
	if opts.Tool == "" {
		opts.Tool = def.Tool
	}
	if opts.VersionArg == "" {
		opts.VersionArg = def.VersionArg
	}
	if base.PluginName == "" {
		base.PluginName = Type
	}
	return &Plugin{BasePlugin: base, opts: opts}
}

// Version is the first line the tool printed for its version argument.
func (p *Plugin) Version() string { return p.version }

func (p *Plugin) PreFlightCheck(ctx context.Context, hc *engine.HookContext) error {
	v, err := execution.CheckVersion(ctx, p.opts.Tool, p.opts.VersionArg, 0, 0, hc.Settings().SearchPaths)
	if err != nil {
		return err
	}
	p.version = v
	hc.Logger.Debug("Build tool found", slog.String("tool", p.opts.Tool), slog.String("version", v))
	return nil
}

func (p *Plugin) Setup(_ context.Context, hc *engine.HookContext) error {
	exp := command.Expander(hc)
	settings := hc.Settings()
	jobs := p.opts.Jobs
	if jobs < 1 {
		jobs = settings.Jobs
	}
	if jobs < 1 {
		jobs = 1
	}

	add := func(step string, argv []string) {
		st := hc.Node.Step(step)
		if st == nil || len(argv) == 0 {
			return
		}
		expanded := make([]string, len(argv))
		for i, a := range argv {
			expanded[i] = exp.Replace(a)
		}
		cmd := execution.Command(expanded...)
		cmd.SearchPaths = settings.SearchPaths
		cmd.Timeout = settings.CommandTimeout.Std()
		a := execution.NewAction(cmd).InDir(hc.BuildDir())
		st.AddMainAction(a)
		hc.Logger.Debug("Added action", logfields.Step(step), logfields.Action(a.Description()))
	}

	add(StepConfigure, p.opts.Configure)
	add(StepMake, p.toolArgs("-j"+strconv.Itoa(jobs)))
	if p.opts.TestTarget != "" {
		add(StepTest, p.toolArgs(p.opts.TestTarget))
	}
	if p.opts.InstallTarget != "" {
		add(StepInstall, p.toolArgs(p.opts.InstallTarget))
	}
	return nil
}

func (p *Plugin) toolArgs(extra ...string) []string {
	argv := make([]string, 0, 1+len(p.opts.Args)+len(extra))
	argv = append(argv, p.opts.Tool)
	argv = append(argv, p.opts.Args...)
	return append(argv, extra...)
}

// Clone forgets the detected version.
func (p *Plugin) Clone() engine.Plugin {
	cp := *p
	cp.version = ""
	return &cp
}
