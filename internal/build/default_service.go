package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/eventstore"
	dberrors "git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/metrics"
	"git.home.luguber.info/inful/makeomatic/internal/observability"
	"git.home.luguber.info/inful/makeomatic/internal/plugin"
	"git.home.luguber.info/inful/makeomatic/internal/plugins"
	"git.home.luguber.info/inful/makeomatic/internal/process"
	"git.home.luguber.info/inful/makeomatic/internal/retry"
	"git.home.luguber.info/inful/makeomatic/internal/scm"
)

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	recorder metrics.Recorder
	logger   *slog.Logger
	history  eventstore.Store
	env      plugins.Env
	registry *plugin.Registry
	proc     *process.Context
	treeHook func(root *engine.Node) error
}

// NewBuildService creates a DefaultBuildService with a no-op recorder and the default
// logger.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithLogger sets the logger handed to the engine.
func (s *DefaultBuildService) WithLogger(l *slog.Logger) *DefaultBuildService {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithHistory records every build in store.
func (s *DefaultBuildService) WithHistory(store eventstore.Store) *DefaultBuildService {
	s.history = store
	return s
}

// WithPluginEnv sets the services the builtin plugin factories get, such as the NATS
// connector. Source control options are always derived from the build description.
func (s *DefaultBuildService) WithPluginEnv(env plugins.Env) *DefaultBuildService {
	s.env = env
	return s
}

// WithRegistry replaces the builtin plugin registry (for testing).
func (s *DefaultBuildService) WithRegistry(r *plugin.Registry) *DefaultBuildService {
	s.registry = r
	return s
}

// WithProcess runs builds with proc instead of a fresh process context.
func (s *DefaultBuildService) WithProcess(proc *process.Context) *DefaultBuildService {
	s.proc = proc
	return s
}

// WithTreeHook lets callers adjust the tree after it was built and before it runs.
func (s *DefaultBuildService) WithTreeHook(fn func(root *engine.Node) error) *DefaultBuildService {
	s.treeHook = fn
	return s
}

// NewTreeBuilder returns the tree builder the service uses for req.
func (s *DefaultBuildService) NewTreeBuilder(req BuildRequest) *TreeBuilder {
	scmOpts := scm.Options{
		CloneCacheDir: req.Config.Settings.CloneCacheDir,
		Retry:         retry.FromConfig(req.Config.Retry),
		Recorder:      s.recorder,
	}
	registry := s.registry
	if registry == nil {
		env := s.env
		env.SCM = scmOpts
		registry = plugins.NewRegistry(env)
	}
	return NewTreeBuilder(registry, scmOpts)
}

// Run executes the complete build.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	result := &BuildResult{StartTime: startTime, BuildID: req.BuildID}
	if result.BuildID == "" {
		result.BuildID = uuid.NewString()
	}
	finish := func(status BuildStatus) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
	}

	if req.Config == nil {
		finish(BuildStatusFailed)
		result.ReturnCode = dberrors.ExitConfiguration
		return result, dberrors.ConfigError("config required").Build()
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	var root *engine.Node
	err := req.Config.Settings.ValidateSelection()
	if err == nil {
		root, err = s.NewTreeBuilder(req).Build(req.Config)
	}
	if err == nil && s.history != nil {
		root.AddPlugin(eventstore.NewPlugin(s.history))
	}
	if err == nil && s.treeHook != nil {
		err = s.treeHook(root)
	}
	if err != nil {
		finish(BuildStatusFailed)
		result.ReturnCode = dberrors.ExitCode(err)
		s.recorder.IncBuildOutcome(metrics.OutcomeForCode(result.ReturnCode))
		s.logger.ErrorContext(ctx, "Build rejected before start",
			logfields.ReturnCode(result.ReturnCode),
			logfields.Error(err))
		return result, err
	}
	result.Root = root

	proc := s.proc
	if proc == nil {
		proc = process.New()
	}
	eng := engine.New(&req.Config.Settings, proc,
		engine.WithRecorder(s.recorder),
		engine.WithLogger(s.logger),
		engine.WithBuildID(result.BuildID))

	runErr := eng.Run(ctx, root)

	result.ReturnCode = proc.ReturnCode()
	root.Walk(func(n *engine.Node) {
		for _, st := range n.FailedSteps() {
			result.FailedSteps = append(result.FailedSteps, n.Path()+"/"+st.Name())
		}
	})
	switch {
	case ctx.Err() != nil:
		finish(BuildStatusCancelled)
	case result.ReturnCode != 0 || runErr != nil:
		finish(BuildStatusFailed)
	default:
		finish(BuildStatusSuccess)
	}
	return result, runErr
}
