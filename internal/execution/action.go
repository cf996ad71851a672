package execution

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/process"
	"git.home.luguber.info/inful/makeomatic/internal/timekeeper"
)

// Action is a single unit of work executed once within a Step.
type Action struct {
	runner  Runner
	workDir string

	started  bool
	finished bool
	result   int
	stdout   []byte
	stderr   []byte
	timedOut bool
	timer    *timekeeper.TimeKeeper
}

// NewAction creates an Action backed by runner.
func NewAction(runner Runner) *Action {
	return &Action{runner: runner, timer: &timekeeper.TimeKeeper{}}
}

// InDir sets the working directory and returns the action for chaining.
func (a *Action) InDir(dir string) *Action {
	a.workDir = dir
	return a
}

func (a *Action) WorkDir() string { return a.workDir }

func (a *Action) Runner() Runner { return a.runner }

func (a *Action) Description() string { return a.runner.Description() }

func (a *Action) Started() bool { return a.started }

func (a *Action) Finished() bool { return a.finished }

func (a *Action) TimeKeeper() *timekeeper.TimeKeeper { return a.timer }

func (a *Action) notFinished(what string) error {
	return errors.InternalError(what+" queried before the action was finished").
		WithContext("action", a.Description()).
		Build()
}

// Result returns the integer result. It is an internal error to ask before the action finished.
func (a *Action) Result() (int, error) {
	if !a.finished {
		return 0, a.notFinished("result")
	}
	return a.result, nil
}

func (a *Action) Stdout() ([]byte, error) {
	if !a.finished {
		return nil, a.notFinished("stdout")
	}
	return a.stdout, nil
}

func (a *Action) Stderr() ([]byte, error) {
	if !a.finished {
		return nil, a.notFinished("stderr")
	}
	return a.stderr, nil
}

func (a *Action) TimedOut() (bool, error) {
	if !a.finished {
		return false, a.notFinished("timed out flag")
	}
	return a.timedOut, nil
}

// Execute runs the action once. The returned result is 0 on success. log receives the
// action description and its output and may be nil. Only internal errors are returned;
// every other failure is folded into the result.
func (a *Action) Execute(ctx context.Context, proc *process.Context, log io.Writer) (int, error) {
	if a.started || a.finished {
		return 0, errors.InternalError("action executed more than once").
			WithContext("action", a.Description()).
			Build()
	}
	a.timer.Start()
	defer func() {
		a.timer.Stop()
		slog.Debug("Action finished",
			logfields.Action(a.Description()),
			logfields.ReturnCode(a.result),
			logfields.Duration(a.timer.Delta()))
	}()

	writeLog(log, "# %s\n", a.Description())
	if a.workDir != "" {
		writeLog(log, "# changing directory to %q\n", a.workDir)
	}

	var (
		outcome Outcome
		runErr  error
	)
	dirErr := proc.InDir(a.workDir, func() error {
		a.started = true
		a.result = 0
		outcome, runErr = a.runner.Run(ctx, proc)
		return nil
	})
	a.finished = true

	if dirErr != nil {
		if errors.IsInternal(dirErr) {
			return 0, dirErr
		}
		a.result = errors.ExitCode(dirErr)
		a.stderr = []byte(dirErr.Error())
		writeLog(log, "# %s\n", dirErr.Error())
		return a.result, nil
	}

	a.result = outcome.Result
	a.stdout = outcome.Stdout
	a.stderr = outcome.Stderr
	a.timedOut = outcome.TimedOut

	if runErr != nil {
		if errors.IsInternal(runErr) {
			return 0, runErr
		}
		a.result = resultFor(runErr)
		if len(a.stderr) > 0 && a.stderr[len(a.stderr)-1] != '\n' {
			a.stderr = append(a.stderr, '\n')
		}
		a.stderr = append(a.stderr, runErr.Error()...)
		slog.Debug("Action failed", logfields.Action(a.Description()), logfields.Error(runErr))
	}
	if a.result < 0 || (a.timedOut && a.result == 0) {
		a.result = errors.ExitBuildFailed
	}

	if len(a.stdout) > 0 {
		writeLog(log, "%s", a.stdout)
	} else {
		writeLog(log, "(The action %q did not generate any output.)\n", a.Description())
	}
	return a.result, nil
}

// resultFor maps a non-internal runner error to an action result. Errors the runner did not
// classify are tool failures.
func resultFor(err error) int {
	if !errors.IsClassified(err) {
		return errors.ExitBuildFailed
	}
	return errors.ExitCode(err)
}

func writeLog(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	_, _ = fmt.Fprintf(w, format, args...)
}

// Clone returns a fresh, not yet executed copy.
func (a *Action) Clone() *Action {
	runner := a.runner
	if c, ok := runner.(Cloner); ok {
		runner = c.CloneRunner()
	}
	return &Action{runner: runner, workDir: a.workDir, timer: &timekeeper.TimeKeeper{}}
}
