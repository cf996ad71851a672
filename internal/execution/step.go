package execution

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/process"
	"git.home.luguber.info/inful/makeomatic/internal/timekeeper"
)

// Status tracks where a Step is in its lifecycle.
type Status int

const (
	StatusNotExecuted Status = iota
	StatusRunning
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	default:
		return "not_executed"
	}
}

// Result is the outcome of a Step.
type Result int

const (
	ResultNotRun Result = iota
	ResultSuccess
	ResultFailure
	ResultSkipped
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultSkipped:
		return "skipped"
	default:
		return "not_run"
	}
}

// Step is a named, ordered bucket of pre, main and post actions.
type Step struct {
	name         string
	enabled      bool
	runOnFailure bool

	pre  []*Action
	main []*Action
	post []*Action

	status  Status
	result  Result
	logFile string
	timer   *timekeeper.TimeKeeper
}

// NewStep returns an enabled step named name.
func NewStep(name string) *Step {
	return &Step{name: name, enabled: true, timer: &timekeeper.TimeKeeper{}}
}

func (s *Step) Name() string { return s.name }

func (s *Step) Enabled() bool { return s.enabled }

func (s *Step) SetEnabled(enabled bool) { s.enabled = enabled }

// RunOnFailure reports whether the step runs even after an earlier failure in the build.
func (s *Step) RunOnFailure() bool { return s.runOnFailure }

func (s *Step) SetRunOnFailure(run bool) { s.runOnFailure = run }

func (s *Step) Status() Status { return s.status }

func (s *Step) Result() Result { return s.result }

func (s *Step) Failed() bool { return s.result == ResultFailure }

func (s *Step) TimeKeeper() *timekeeper.TimeKeeper { return s.timer }

func (s *Step) LogFile() string { return s.logFile }

// SetLogFile makes Execute append the action output to path.
func (s *Step) SetLogFile(path string) { s.logFile = path }

func (s *Step) AddPreAction(a *Action) { s.pre = append(s.pre, a) }

func (s *Step) AddMainAction(a *Action) { s.main = append(s.main, a) }

func (s *Step) AddPostAction(a *Action) { s.post = append(s.post, a) }

// PrependMainAction inserts a before every other main action.
func (s *Step) PrependMainAction(a *Action) {
	s.main = append([]*Action{a}, s.main...)
}

func (s *Step) PreActions() []*Action { return s.pre }

func (s *Step) MainActions() []*Action { return s.main }

func (s *Step) PostActions() []*Action { return s.post }

// Actions returns pre, main and post actions in execution order.
func (s *Step) Actions() []*Action {
	all := make([]*Action, 0, len(s.pre)+len(s.main)+len(s.post))
	all = append(all, s.pre...)
	all = append(all, s.main...)
	return append(all, s.post...)
}

// IsEmpty reports whether the step has no actions at all.
func (s *Step) IsEmpty() bool {
	return len(s.pre)+len(s.main)+len(s.post) == 0
}

// Execute runs the step. It returns true when the step succeeded or was skipped and false
// when an action failed. A disabled step is skipped. Once proc carries a non-zero return
// code, steps that do not run on failure are skipped too. Otherwise pre, main and post
// actions run in that order and the first non-zero result ends the step as a failure,
// which registers the build failure code with proc. The error is reserved for internal
// faults.
func (s *Step) Execute(ctx context.Context, proc *process.Context) (bool, error) {
	if s.status != StatusNotExecuted {
		return false, errors.InternalError("step executed more than once").
			WithContext("step", s.name).
			Build()
	}
	if !s.enabled || (proc.Failed() && !s.runOnFailure) {
		s.status = StatusDone
		s.result = ResultSkipped
		slog.Debug("Step skipped", logfields.Step(s.name), slog.Bool("enabled", s.enabled))
		return true, nil
	}

	s.status = StatusRunning
	s.timer.Start()
	defer s.timer.Stop()

	var log io.Writer
	if s.logFile != "" && !s.IsEmpty() {
		f, err := openLog(s.logFile)
		if err != nil {
			slog.Warn("Cannot open step log file", logfields.Step(s.name), logfields.Path(s.logFile), logfields.Error(err))
		} else {
			defer func() { _ = f.Close() }()
			log = f
		}
	}

	s.result = ResultSuccess
	for _, list := range [][]*Action{s.pre, s.main, s.post} {
		ok, err := s.runList(ctx, proc, list, log)
		if err != nil {
			s.status = StatusDone
			s.result = ResultFailure
			return false, err
		}
		if !ok {
			s.result = ResultFailure
			break
		}
	}
	s.status = StatusDone

	if s.result == ResultFailure {
		proc.RegisterReturnCode(errors.ExitBuildFailed)
		slog.Info("Step failed", logfields.Step(s.name))
		return false, nil
	}
	return true, nil
}

func (s *Step) runList(ctx context.Context, proc *process.Context, actions []*Action, log io.Writer) (bool, error) {
	for _, a := range actions {
		result, err := a.Execute(ctx, proc, log)
		if err != nil {
			return false, err
		}
		if result != 0 {
			return false, nil
		}
	}
	return true, nil
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

// Clone returns a not yet executed copy with cloned actions. The log file is not copied;
// the owner of the clone assigns one under its own log directory.
func (s *Step) Clone() *Step {
	cp := &Step{
		name:         s.name,
		enabled:      s.enabled,
		runOnFailure: s.runOnFailure,
		timer:        &timekeeper.TimeKeeper{},
	}
	for _, a := range s.pre {
		cp.pre = append(cp.pre, a.Clone())
	}
	for _, a := range s.main {
		cp.main = append(cp.main, a.Clone())
	}
	for _, a := range s.post {
		cp.post = append(cp.post, a.Clone())
	}
	return cp
}
