package eventstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/nodename"
)

// Plugin records the progress of a build in a Store. Attach it to the root node.
type Plugin struct {
	engine.BasePlugin
	store   Store
	buildID string
	started time.Time
}

// NewPlugin returns an optional history plugin writing to store.
func NewPlugin(store Store) *Plugin {
	return &Plugin{
		BasePlugin: engine.BasePlugin{PluginName: "history", IsOptional: true},
		store:      store,
	}
}

// BuildID is the identifier events are recorded under.
func (p *Plugin) BuildID() string { return p.buildID }

func (p *Plugin) Prepare(ctx context.Context, hc *engine.HookContext) error {
	p.started = time.Now()
	p.buildID = hc.BuildID
	if p.buildID == "" {
		p.buildID = uuid.NewString()
	}
	e, err := NewBuildStarted(p.buildID, BuildStartedMeta{
		Name:      hc.Node.Root().Name(),
		BuildType: hc.Settings().BuildType,
		Host:      nodename.Host(),
	})
	if err != nil {
		return err
	}
	if err := AppendEvent(ctx, p.store, e); err != nil {
		return err
	}
	return p.phaseCompleted(ctx, hc)
}

func (p *Plugin) PreFlightCheck(ctx context.Context, hc *engine.HookContext) error {
	return p.phaseCompleted(ctx, hc)
}

func (p *Plugin) Setup(ctx context.Context, hc *engine.HookContext) error {
	return p.phaseCompleted(ctx, hc)
}

// Execute runs after the whole subtree has executed, so every step has its result.
func (p *Plugin) Execute(ctx context.Context, hc *engine.HookContext) error {
	var appendErr error
	hc.Node.Walk(func(n *engine.Node) {
		for _, s := range n.Steps() {
			if appendErr != nil || s.IsEmpty() {
				continue
			}
			appendErr = p.stepFinished(ctx, n, s)
		}
	})
	if appendErr != nil {
		return appendErr
	}
	return p.phaseCompleted(ctx, hc)
}

func (p *Plugin) stepFinished(ctx context.Context, n *engine.Node, s *execution.Step) error {
	e, err := NewStepFinished(p.buildID, StepFinishedMeta{
		Node:       n.Path(),
		Step:       s.Name(),
		Result:     s.Result().String(),
		DurationMS: s.TimeKeeper().Delta().Milliseconds(),
		LogFile:    s.LogFile(),
	})
	if err != nil {
		return err
	}
	return AppendEvent(ctx, p.store, e)
}

func (p *Plugin) WrapUp(ctx context.Context, hc *engine.HookContext) error {
	return p.phaseCompleted(ctx, hc)
}

// Report records the outcome of the build.
func (p *Plugin) Report(ctx context.Context, hc *engine.HookContext) error {
	var failed []string
	hc.Node.Walk(func(n *engine.Node) {
		for _, s := range n.FailedSteps() {
			failed = append(failed, n.Path()+"/"+s.Name())
		}
	})
	e, err := NewBuildFinished(p.buildID, BuildFinishedMeta{
		ReturnCode:  hc.Process().ReturnCode(),
		DurationMS:  time.Since(p.started).Milliseconds(),
		FailedSteps: failed,
	})
	if err != nil {
		return err
	}
	if err := AppendEvent(ctx, p.store, e); err != nil {
		return err
	}
	return p.phaseCompleted(ctx, hc)
}

func (p *Plugin) Notify(ctx context.Context, hc *engine.HookContext) error {
	return p.phaseCompleted(ctx, hc)
}

func (p *Plugin) ShutDown(ctx context.Context, hc *engine.HookContext) error {
	return p.phaseCompleted(ctx, hc)
}

func (p *Plugin) phaseCompleted(ctx context.Context, hc *engine.HookContext) error {
	if p.buildID == "" {
		return nil
	}
	e, err := NewPhaseCompleted(p.buildID, PhaseCompletedMeta{
		Phase:      hc.Phase.String(),
		ReturnCode: hc.Process().ReturnCode(),
	})
	if err != nil {
		return err
	}
	return AppendEvent(ctx, p.store, e)
}

// Clone shares the store and starts a new build record.
func (p *Plugin) Clone() engine.Plugin {
	cp := *p
	cp.buildID = ""
	cp.started = time.Time{}
	return &cp
}
