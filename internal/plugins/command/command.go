// Package command attaches configured actions to the steps of a node.
//
// Arguments, scripts and directories may use placeholders that are expanded at Setup
// time, when the node's directories are known:
//
//	{base}    node base directory
//	{src}     project source directory
//	{docs}    project documentation directory
//	{tmp}     project scratch directory
//	{build}   configuration build directory
//	{target}  configuration install directory
//	{packages} build packages directory
//	{jobs}    configured parallel jobs
package command

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
)

// Type is the registry name of the plugin.
const Type = "command"

// Stages an action can be added to.
const (
	StagePre  = "pre"
	StageMain = "main"
	StagePost = "post"
)

// Options list the actions per step.
type Options struct {
	Steps []config.StepActions `yaml:"steps"`
}

// Validate checks every action description without building anything.
func (o Options) Validate() error {
	return config.ValidateStepActions(Type, o.Steps)
}

// Plugin adds the configured actions during Setup.
type Plugin struct {
	engine.BasePlugin
	opts Options
}

// NewPlugin validates opts and returns the plugin.
func NewPlugin(base engine.BasePlugin, opts Options) (*Plugin, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if base.PluginName == "" {
		base.PluginName = Type
	}
	return &Plugin{BasePlugin: base, opts: opts}, nil
}

func (p *Plugin) Setup(_ context.Context, hc *engine.HookContext) error {
	exp := Expander(hc)
	for _, sa := range p.opts.Steps {
		step, err := hc.Node.RequireStep(sa.Step)
		if err != nil {
			return err
		}
		for _, ac := range sa.Actions {
			a := NewAction(ac, hc, exp)
			switch ac.When {
			case StagePre:
				step.AddPreAction(a)
			case StagePost:
				step.AddPostAction(a)
			default:
				step.AddMainAction(a)
			}
			hc.Logger.Debug("Added action", logfields.Step(sa.Step), logfields.Action(a.Description()))
		}
	}
	return nil
}

// NewAction builds the action ac describes for the node of hc. The command timeout and
// search paths of the settings apply unless the action sets its own timeout.
func NewAction(ac config.ActionConfig, hc *engine.HookContext, exp *strings.Replacer) *execution.Action {
	settings := hc.Settings()
	var runner execution.Runner
	switch {
	case ac.MkDir != "":
		runner = execution.MkDir{Path: resolve(hc, exp.Replace(ac.MkDir))}
	case ac.RmDir != "":
		runner = execution.RmDir{Path: resolve(hc, exp.Replace(ac.RmDir))}
	default:
		var cmd *execution.ShellCommand
		if ac.Script != "" {
			cmd = execution.Script(exp.Replace(ac.Script))
		} else {
			argv := make([]string, len(ac.Run))
			for i, arg := range ac.Run {
				argv[i] = exp.Replace(arg)
			}
			cmd = execution.Command(argv...)
		}
		cmd.SearchPaths = settings.SearchPaths
		cmd.Timeout = settings.CommandTimeout.Std()
		if ac.Timeout > 0 {
			cmd.Timeout = ac.Timeout.Std()
		}
		if len(ac.Env) > 0 {
			cmd.Env = make(map[string]string, len(ac.Env))
			for k, v := range ac.Env {
				cmd.Env[k] = exp.Replace(v)
			}
		}
		runner = cmd
	}
	a := execution.NewAction(runner)
	if ac.Dir != "" {
		a.InDir(resolve(hc, exp.Replace(ac.Dir)))
	}
	return a
}

// resolve makes relative paths relative to the node base directory.
func resolve(hc *engine.HookContext, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	base, err := hc.Node.BaseDir()
	if err != nil {
		return p
	}
	return filepath.Join(base, p)
}

// Expander returns the placeholder replacer for the node of hc.
func Expander(hc *engine.HookContext) *strings.Replacer {
	base, _ := hc.Node.BaseDir()
	jobs := hc.Settings().Jobs
	if jobs < 1 {
		jobs = 1
	}
	return strings.NewReplacer(
		"{base}", base,
		"{src}", hc.SourceDir(),
		"{docs}", hc.DocsDir(),
		"{tmp}", hc.TempDir(),
		"{build}", hc.BuildDir(),
		"{target}", hc.TargetDir(),
		"{packages}", hc.Node.Root().PackagesDir(),
		"{jobs}", strconv.Itoa(jobs),
	)
}

// Clone shares the immutable options.
func (p *Plugin) Clone() engine.Plugin {
	cp := *p
	return &cp
}
