package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/nodename"
	"git.home.luguber.info/inful/makeomatic/internal/observability"
	"git.home.luguber.info/inful/makeomatic/internal/sequencer"
)

// Step names the default handlers attach directory actions to.
const (
	StepProjectCreateFolders = "project-create-folders"
	StepProjectCleanup       = "project-cleanup"
	StepConfCreateFolders    = "conf-create-folders"
	StepConfCleanup          = "conf-cleanup"
)

// defaultHooks is the node's own handler. It keeps no state; everything lives on hc.Node.
type defaultHooks struct{}

var _ Hooks = defaultHooks{}

// Prepare logs the build type and its description on the root. Other nodes have
// nothing to prepare.
func (defaultHooks) Prepare(ctx context.Context, hc *HookContext) error {
	if hc.Node.parent != nil {
		return nil
	}
	s := hc.Settings()
	hc.Logger.InfoContext(ctx, "Build prepared",
		logfields.BuildType(s.BuildType),
		slog.String("description", s.BuildTypeDescription()))
	return nil
}

// PreFlightCheck computes and creates the base and log directories of the node, and
// the packages directory for the root.
func (defaultHooks) PreFlightCheck(_ context.Context, hc *HookContext) error {
	n := hc.Node
	s := hc.Settings()

	base, err := baseDirFor(n)
	if err != nil {
		return err
	}
	n.baseDir = base

	root := n.Root()
	rel, err := filepath.Rel(root.baseDir, base)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "cannot compute relative node directory").
			WithContext("node", n.Path()).
			Build()
	}
	n.logDir = filepath.Join(root.baseDir, s.Dirs.Log, rel)
	n.packagesDir = filepath.Join(root.baseDir, s.Dirs.Packages)

	dirs := []string{n.baseDir, n.logDir}
	if n.parent == nil {
		dirs = append(dirs, n.packagesDir)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "cannot create node directory").
				WithContext("node", n.Path()).
				WithContext("path", d).
				Build()
		}
	}
	hc.Logger.Debug("Node directories ready", logfields.Path(n.baseDir))
	return nil
}

func baseDirFor(n *Node) (string, error) {
	if n.parent == nil {
		dir := n.requestedBaseDir
		if dir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return "", errors.WrapError(err, errors.CategoryRuntime, "cannot determine working directory").Build()
			}
			dir = filepath.Join(cwd, nodename.Folder(n.name))
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryConfig, "invalid base directory").
				WithContext("path", dir).
				Build()
		}
		return abs, nil
	}
	if n.parent.baseDir == "" {
		return "", errors.InternalError("parent base directory not computed").
			WithContext("node", n.Path()).
			Build()
	}
	i, err := n.parent.Index(n)
	if err != nil {
		return "", err
	}
	return filepath.Join(n.parent.baseDir, fmt.Sprintf("%d_%s", i+1, nodename.Folder(n.name))), nil
}

// declarationsFor returns the step declarations that apply to nodes of kind k.
func declarationsFor(s *config.Settings, k Kind) []sequencer.StepDeclaration {
	switch k {
	case KindProject:
		return s.ProjectSteps
	case KindConfiguration, KindVariant:
		return s.ConfigurationSteps
	default:
		return s.BuildSteps
	}
}

// Setup computes the node's steps for the build type and switches and adds the
// folder actions of project and configuration nodes.
func (defaultHooks) Setup(_ context.Context, hc *HookContext) error {
	n := hc.Node
	s := hc.Settings()

	switches, err := sequencer.ParseSwitches(s.StepSwitches)
	if err != nil {
		return err
	}
	if err := sequencer.ValidateSwitches(s.StepDeclarations(), switches); err != nil {
		return err
	}

	decls := declarationsFor(s, n.kind)
	steps, err := sequencer.ComputeSteps(decls, s.BuildType, sequencer.Select(decls, switches))
	if err != nil {
		return err
	}
	// Steps are never reordered. A declared step added before Setup keeps its position and
	// its actions and takes the computed switches; the others are appended in declaration
	// order.
	for _, st := range steps {
		if existing := n.Step(st.Name()); existing != nil {
			existing.SetEnabled(st.Enabled())
			existing.SetRunOnFailure(st.RunOnFailure())
			continue
		}
		if err := n.AddStep(st); err != nil {
			return err
		}
	}
	for _, st := range n.steps {
		if st.LogFile() == "" {
			st.SetLogFile(filepath.Join(n.logDir, st.Name()+".log"))
		}
	}

	switch n.kind {
	case KindProject:
		dirs := []string{hc.SourceDir(), hc.DocsDir(), hc.TempDir()}
		if st := n.Step(StepProjectCreateFolders); st != nil {
			for _, d := range dirs {
				st.AddMainAction(execution.NewAction(execution.MkDir{Path: d}))
			}
		}
		if st := n.Step(StepProjectCleanup); st != nil {
			for _, d := range dirs {
				st.PrependMainAction(execution.NewAction(execution.RmDir{Path: d}))
			}
		}
	case KindConfiguration, KindVariant:
		if st := n.Step(StepConfCreateFolders); st != nil {
			st.AddMainAction(execution.NewAction(execution.MkDir{Path: hc.BuildDir()}))
			st.AddMainAction(execution.NewAction(execution.MkDir{Path: hc.TargetDir()}))
		}
		if st := n.Step(StepConfCleanup); st != nil {
			st.PrependMainAction(execution.NewAction(execution.RmDir{Path: hc.BuildDir()}))
			st.PrependMainAction(execution.NewAction(execution.RmDir{Path: hc.TargetDir()}))
		}
	}
	return nil
}

// Execute runs the steps in order. A failed step keeps the log directory.
func (defaultHooks) Execute(ctx context.Context, hc *HookContext) error {
	n := hc.Node
	n.timer.Start()
	defer n.timer.Stop()

	rec := hc.Recorder()
	for _, st := range n.steps {
		sctx := observability.WithStep(ctx, st.Name())
		ok, err := st.Execute(sctx, hc.Process())
		if err != nil {
			return err
		}
		if !ok {
			n.deleteLogDir = false
			observability.WarnContext(sctx, "Step failed", logfields.Path(st.LogFile()))
		}
		if st.Result() != execution.ResultSkipped {
			rec.ObserveStepDuration(st.Name(), st.TimeKeeper().Delta())
			rec.IncStepResult(st.Name(), st.Result().String())
		}
	}
	return nil
}

func (defaultHooks) WrapUp(context.Context, *HookContext) error { return nil }

func (defaultHooks) Report(context.Context, *HookContext) error { return nil }

func (defaultHooks) Notify(context.Context, *HookContext) error { return nil }

// ShutDown deletes the log directory unless logs are kept.
func (defaultHooks) ShutDown(_ context.Context, hc *HookContext) error {
	n := hc.Node
	if n.logDir == "" || n.keepsLogs() {
		return nil
	}
	if err := os.RemoveAll(n.logDir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot delete log directory").
			WithContext("path", n.logDir).
			Build()
	}
	hc.Logger.Debug("Log directory deleted", logfields.Path(n.logDir))
	return nil
}
