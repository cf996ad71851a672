package scm

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/nodename"
)

// Steps the plugin fills.
const (
	StepCheckout = "project-checkout"
	StepPackage  = "project-package"
)

// Plugin attaches a Provider to a project: it checks the provider in PreFlightCheck, adds
// the checkout and source package actions in Setup and logs the built revision in WrapUp.
type Plugin struct {
	engine.BasePlugin
	provider Provider
	revision string
	built    string
}

// NewPlugin returns the plugin for provider. An empty revision defers to the build
// settings and then to the most recent revision.
func NewPlugin(provider Provider, revision string) *Plugin {
	return &Plugin{
		BasePlugin: engine.BasePlugin{PluginName: "scm-" + provider.Identifier()},
		provider:   provider,
		revision:   revision,
	}
}

func (p *Plugin) Provider() Provider { return p.provider }

// BuiltRevision is the revision the checkout step resolved, if it ran.
func (p *Plugin) BuiltRevision() string { return p.built }

func (p *Plugin) PreFlightCheck(ctx context.Context, hc *engine.HookContext) error {
	desc, err := p.provider.CheckInstallation(ctx)
	if err != nil {
		return err
	}
	hc.Logger.DebugContext(ctx, "Source code provider ready", logfields.URL(p.provider.Location()), logfields.Result(desc))
	return nil
}

func (p *Plugin) Setup(_ context.Context, hc *engine.HookContext) error {
	revision := p.revision
	if revision == "" {
		revision = hc.Settings().Revision
	}
	srcDir := hc.SourceDir()

	if step := hc.Node.Step(StepCheckout); step != nil {
		desc := fmt.Sprintf("checkout %s:%s into %s", p.provider.Identifier(), p.provider.Location(), srcDir)
		step.AddMainAction(execution.NewAction(execution.Func(desc, func(ctx context.Context) error {
			built, err := p.provider.Checkout(ctx, revision, srcDir)
			if err != nil {
				return err
			}
			p.built = built
			return nil
		})))
	}

	if step := hc.Node.Step(StepPackage); step != nil {
		name := nodename.Folder(hc.Node.Name())
		dest := filepath.Join(hc.Node.PackagesDir(), name+"-src.tar.gz")
		step.AddMainAction(execution.NewAction(execution.Func("archive sources to "+dest, func(context.Context) error {
			return Archive(srcDir, dest, name)
		})))
	}
	return nil
}

func (p *Plugin) WrapUp(ctx context.Context, hc *engine.HookContext) error {
	if p.built == "" {
		return nil
	}
	info, err := p.provider.RevisionInfo(ctx, p.built)
	if err != nil {
		return err
	}
	hc.Logger.InfoContext(ctx, "Built revision",
		logfields.Revision(info.Hash),
		logfields.URL(p.provider.Location()),
		slog.String("committer", info.Committer),
		slog.String("summary", info.Summary()))
	return nil
}

// Clone shares the provider, which holds no per-build state, and forgets the checkout.
func (p *Plugin) Clone() engine.Plugin {
	cp := *p
	cp.built = ""
	return &cp
}
