package engine

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/metrics"
	"git.home.luguber.info/inful/makeomatic/internal/observability"
	"git.home.luguber.info/inful/makeomatic/internal/process"
	"git.home.luguber.info/inful/makeomatic/internal/timekeeper"
)

// Engine drives phases over an instruction tree.
type Engine struct {
	settings *config.Settings
	proc     *process.Context
	recorder metrics.Recorder
	logger   *slog.Logger
	buildID  string
	timer    *timekeeper.TimeKeeper
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the metrics recorder. The default records nothing.
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithLogger sets the logger hooks receive. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBuildID tags every log record and hook context with id.
func WithBuildID(id string) Option {
	return func(e *Engine) { e.buildID = id }
}

// New returns an engine for one build. A nil proc gets a fresh process context.
func New(settings *config.Settings, proc *process.Context, opts ...Option) *Engine {
	if settings == nil {
		s := config.DefaultSettings()
		settings = &s
	}
	if proc == nil {
		proc = process.New()
	}
	e := &Engine{
		settings: settings,
		proc:     proc,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		timer:    &timekeeper.TimeKeeper{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.buildID != "" {
		e.logger = e.logger.With(logfields.BuildID(e.buildID))
	}
	return e
}

// Settings returns the build settings every hook sees.
func (e *Engine) Settings() *config.Settings { return e.settings }

// Process returns the process context holding the tree-wide return code.
func (e *Engine) Process() *process.Context { return e.proc }

// BuildID returns the identifier attached to every log line of the run, or "".
func (e *Engine) BuildID() string { return e.buildID }

// TimeKeeper measures the whole Run.
func (e *Engine) TimeKeeper() *timekeeper.TimeKeeper { return e.timer }

// RunPhase runs phase over the subtree rooted at n: the node's own handler first, then
// every child in order, then every enabled plugin of the node. The environment is restored
// afterwards. A plugin error is logged and skipped when the plugin is optional (unless the
// error is internal) or when phase is a cleanup phase. In build phases any other error
// aborts the rest of the subtree and is returned. In cleanup phases handler and child
// errors are logged, the rest of the subtree still runs, and the first one is returned.
func (e *Engine) RunPhase(ctx context.Context, n *Node, phase Phase) error {
	if phase <= PhaseStart || phase >= phaseCount {
		return errors.InternalError("no handler for phase").
			WithContext("phase", phase.String()).
			Build()
	}
	hook := dispatch[phase]
	n.phase = phase

	path := n.Path()
	ctx = observability.WithPhase(observability.WithNode(ctx, path), phase.String())
	logger := e.logger.With(logfields.Node(path), logfields.Phase(phase.String()))
	hc := &HookContext{Node: n, Phase: phase, Logger: logger, BuildID: e.buildID, engine: e}

	err := e.proc.WithEnvironment(func() error {
		// In cleanup phases a failing handler or child does not stop the walk; the first
		// error is returned once the whole subtree has run.
		var cleanupErr error
		if err := hook(n.handler, ctx, hc); err != nil {
			if !phase.IsCleanup() {
				return err
			}
			cleanupErr = err
			n.deleteLogDir = false
			logger.ErrorContext(ctx, "Cleanup failed, continuing", logfields.Error(err))
		}
		for _, c := range n.children {
			if err := e.RunPhase(ctx, c, phase); err != nil {
				if !phase.IsCleanup() {
					return err
				}
				if cleanupErr == nil {
					cleanupErr = err
				}
			}
		}
		for _, p := range n.plugins {
			if !p.Enabled() {
				continue
			}
			phc := *hc
			phc.Logger = logger.With(logfields.Plugin(p.Name()))
			err := hook(p, ctx, &phc)
			if err == nil {
				continue
			}
			e.recorder.IncPluginError(p.Name(), phase.String())
			if !catches(p, phase, err) {
				return err
			}
			n.deleteLogDir = false
			phc.Logger.ErrorContext(ctx, "Plugin failed, continuing",
				slog.Bool("optional", p.Optional()),
				logfields.Error(err))
		}
		return cleanupErr
	})
	if err != nil {
		n.deleteLogDir = false
	}
	return err
}

// catches reports whether a plugin error in phase is contained.
func catches(p Plugin, phase Phase, err error) bool {
	if phase.IsCleanup() {
		return true
	}
	return p.Optional() && !errors.IsInternal(err)
}

// Run performs a complete build of root. The build phases stop at the first error, whose
// return code is registered with the process context. The cleanup phases then always run,
// Notify only when notifications are enabled. The first error is returned.
func (e *Engine) Run(ctx context.Context, root *Node) error {
	if root.parent != nil {
		return errors.InternalError("only a root node can be built").
			WithContext("node", root.Path()).
			Build()
	}
	if e.buildID != "" {
		ctx = observability.WithBuildID(ctx, e.buildID)
	}
	e.timer.Start()
	e.logger.InfoContext(ctx, "Build started", logfields.Node(root.Path()), logfields.BuildType(e.settings.BuildType))

	var firstErr error
	for _, phase := range BuildPhases {
		if err := e.timedPhase(ctx, root, phase); err != nil {
			firstErr = err
			e.proc.RegisterReturnCode(errors.ExitCode(err))
			e.logger.ErrorContext(ctx, "Build aborted", logfields.Phase(phase.String()), logfields.Error(err))
			break
		}
	}
	for _, phase := range CleanupPhases {
		if phase == PhaseNotify && !e.settings.NotificationsEnabled {
			e.logger.DebugContext(ctx, "Notifications disabled")
			continue
		}
		if err := e.timedPhase(ctx, root, phase); err != nil {
			e.logger.ErrorContext(ctx, "Cleanup phase failed", logfields.Phase(phase.String()), logfields.Error(err))
			if firstErr == nil {
				firstErr = err
				e.proc.RegisterReturnCode(errors.ExitCode(err))
			}
		}
	}
	e.timer.Stop()

	code := e.proc.ReturnCode()
	e.recorder.ObserveBuildDuration(e.timer.Delta())
	e.recorder.IncBuildOutcome(metrics.OutcomeForCode(code))
	e.logger.InfoContext(ctx, "Build finished",
		logfields.ReturnCode(code),
		logfields.Duration(e.timer.Delta()),
		slog.Bool("failed_steps", root.HasFailedRecursively()))
	return firstErr
}

func (e *Engine) timedPhase(ctx context.Context, root *Node, phase Phase) error {
	start := time.Now()
	defer func() { e.recorder.ObservePhaseDuration(phase.String(), time.Since(start)) }()
	return e.RunPhase(ctx, root, phase)
}
