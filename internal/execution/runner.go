package execution

import (
	"context"

	"git.home.luguber.info/inful/makeomatic/internal/process"
)

// Outcome is what a Runner reports back to its Action.
type Outcome struct {
	Result   int
	Stdout   []byte
	Stderr   []byte
	TimedOut bool
}

// Runner is the type-specific behavior of an Action.
type Runner interface {
	// Run performs the work. A non-zero Outcome.Result marks a failure the runner could
	// describe itself; a returned error is classified by the Action.
	Run(ctx context.Context, proc *process.Context) (Outcome, error)
	// Description is the one-line text written to step logs and reports.
	Description() string
}

// Cloner is implemented by runners that hold per-run state and must be copied when the
// owning Action is cloned. Runners without it are shared between clones.
type Cloner interface {
	CloneRunner() Runner
}

// RunnerFunc adapts a plain function to a Runner.
type RunnerFunc struct {
	Name string
	Fn   func(ctx context.Context, proc *process.Context) (Outcome, error)
}

func (f RunnerFunc) Run(ctx context.Context, proc *process.Context) (Outcome, error) {
	return f.Fn(ctx, proc)
}

func (f RunnerFunc) Description() string { return f.Name }

// Func returns a Runner around fn whose error, if any, is classified by the Action.
func Func(name string, fn func(ctx context.Context) error) Runner {
	return RunnerFunc{Name: name, Fn: func(ctx context.Context, _ *process.Context) (Outcome, error) {
		return Outcome{}, fn(ctx)
	}}
}
