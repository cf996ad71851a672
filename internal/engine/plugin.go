package engine

import (
	"context"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/metrics"
	"git.home.luguber.info/inful/makeomatic/internal/process"
)

// Hooks has one method per phase. Node handlers and plugins implement it.
type Hooks interface {
	Prepare(ctx context.Context, hc *HookContext) error
	PreFlightCheck(ctx context.Context, hc *HookContext) error
	Setup(ctx context.Context, hc *HookContext) error
	Execute(ctx context.Context, hc *HookContext) error
	WrapUp(ctx context.Context, hc *HookContext) error
	Report(ctx context.Context, hc *HookContext) error
	Notify(ctx context.Context, hc *HookContext) error
	ShutDown(ctx context.Context, hc *HookContext) error
}

// Plugin is a collaborator attached to a node.
type Plugin interface {
	Hooks
	Name() string
	Enabled() bool
	// Optional plugins may fail without failing the build.
	Optional() bool
	// Clone returns an independent copy for a cloned node.
	Clone() Plugin
}

type hookFunc func(Hooks, context.Context, *HookContext) error

// dispatch maps each phase to its Hooks method.
var dispatch = [phaseCount]hookFunc{
	PhasePrepare:        Hooks.Prepare,
	PhasePreFlightCheck: Hooks.PreFlightCheck,
	PhaseSetup:          Hooks.Setup,
	PhaseExecute:        Hooks.Execute,
	PhaseWrapUp:         Hooks.WrapUp,
	PhaseReport:         Hooks.Report,
	PhaseNotify:         Hooks.Notify,
	PhaseShutDown:       Hooks.ShutDown,
}

// BasePlugin implements every hook as a no-op. Embed it and override what you need.
type BasePlugin struct {
	PluginName string
	// Disabled plugins are skipped in every phase. Enabled and SetEnabled read and
	// flip it.
	Disabled bool
	// IsOptional makes the engine log and skip non-internal errors of the plugin in
	// the build phases too. Optional reports it.
	IsOptional bool
}

// Name returns the instance name used in logs and metrics.
func (b *BasePlugin) Name() string       { return b.PluginName }
func (b *BasePlugin) Enabled() bool      { return !b.Disabled }
func (b *BasePlugin) Optional() bool     { return b.IsOptional }
func (b *BasePlugin) SetEnabled(on bool) { b.Disabled = !on }

// The phase hooks below do nothing; plugins override the ones they need.
func (b *BasePlugin) Prepare(context.Context, *HookContext) error        { return nil }
func (b *BasePlugin) PreFlightCheck(context.Context, *HookContext) error { return nil }
func (b *BasePlugin) Setup(context.Context, *HookContext) error          { return nil }
func (b *BasePlugin) Execute(context.Context, *HookContext) error        { return nil }
func (b *BasePlugin) WrapUp(context.Context, *HookContext) error         { return nil }
func (b *BasePlugin) Report(context.Context, *HookContext) error         { return nil }
func (b *BasePlugin) Notify(context.Context, *HookContext) error         { return nil }
func (b *BasePlugin) ShutDown(context.Context, *HookContext) error       { return nil }

// HookContext is what a hook gets to work with: the node it runs for and the services of
// the engine running the build.
type HookContext struct {
	Node    *Node
	Phase   Phase
	Logger  *slog.Logger
	BuildID string

	engine *Engine
}

// Settings returns the build settings.
func (hc *HookContext) Settings() *config.Settings { return hc.engine.settings }

// Process returns the process context. Environment changes made through it are
// undone when the phase leaves the node.
func (hc *HookContext) Process() *process.Context { return hc.engine.proc }

// Recorder returns the metrics recorder of the run, never nil.
func (hc *HookContext) Recorder() metrics.Recorder { return hc.engine.recorder }

// Project returns the project the node belongs to, or nil above project level.
func (hc *HookContext) Project() *Node {
	for n := hc.Node; n != nil; n = n.parent {
		if n.kind == KindProject {
			return n
		}
	}
	return nil
}

// SourceDir is the checkout directory of the node's project.
func (hc *HookContext) SourceDir() string {
	return hc.projectDir(hc.Settings().Dirs.Source)
}

// DocsDir is where the node's project writes documentation.
func (hc *HookContext) DocsDir() string {
	return hc.projectDir(hc.Settings().Dirs.Docs)
}

// TempDir is the scratch directory of the node's project.
func (hc *HookContext) TempDir() string {
	return hc.projectDir(hc.Settings().Dirs.Temp)
}

// BuildDir is the out of source build directory of a configuration.
func (hc *HookContext) BuildDir() string {
	return filepath.Join(hc.Node.baseDir, hc.Settings().Dirs.Build)
}

// TargetDir is the install directory of a configuration.
func (hc *HookContext) TargetDir() string {
	return filepath.Join(hc.Node.baseDir, hc.Settings().Dirs.Target)
}

func (hc *HookContext) projectDir(name string) string {
	p := hc.Project()
	if p == nil {
		p = hc.Node
	}
	return filepath.Join(p.baseDir, name)
}
