package execution

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/process"
)

type recorder struct {
	calls []string
}

func (r *recorder) action(name string, result int) *Action {
	return NewAction(RunnerFunc{Name: name, Fn: func(context.Context, *process.Context) (Outcome, error) {
		r.calls = append(r.calls, name)
		return Outcome{Result: result, Stdout: []byte(name + "\n")}, nil
	}})
}

func TestStepRunsPreMainPostInOrder(t *testing.T) {
	rec := &recorder{}
	s := NewStep("build")
	s.AddPostAction(rec.action("post", 0))
	s.AddMainAction(rec.action("main2", 0))
	s.PrependMainAction(rec.action("main1", 0))
	s.AddPreAction(rec.action("pre", 0))

	ok, err := s.Execute(t.Context(), process.New())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"pre", "main1", "main2", "post"}, rec.calls)
	assert.Equal(t, StatusDone, s.Status())
	assert.Equal(t, ResultSuccess, s.Result())
	assert.True(t, s.TimeKeeper().Measured())
}

func TestStepStopsAtFirstFailure(t *testing.T) {
	rec := &recorder{}
	proc := process.New()
	s := NewStep("build")
	s.AddMainAction(rec.action("a", 0))
	s.AddMainAction(rec.action("b", 3))
	s.AddMainAction(rec.action("c", 0))
	s.AddPostAction(rec.action("post", 0))

	ok, err := s.Execute(t.Context(), proc)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, rec.calls)
	assert.Equal(t, ResultFailure, s.Result())
	assert.True(t, s.Failed())
	assert.Equal(t, errors.ExitBuildFailed, proc.ReturnCode())
}

func TestDisabledStepIsSkippedRegardlessOfFailures(t *testing.T) {
	for _, failed := range []bool{false, true} {
		rec := &recorder{}
		proc := process.New()
		if failed {
			proc.RegisterReturnCode(errors.ExitBuildFailed)
		}
		s := NewStep("docs")
		s.SetRunOnFailure(true)
		s.SetEnabled(false)
		s.AddMainAction(rec.action("a", 0))

		ok, err := s.Execute(t.Context(), proc)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, ResultSkipped, s.Result())
		assert.Equal(t, StatusDone, s.Status())
		assert.Empty(t, rec.calls)
	}
}

func TestStepSkippedAfterEarlierFailureUnlessRunOnFailure(t *testing.T) {
	proc := process.New()
	proc.RegisterReturnCode(errors.ExitBuildFailed)

	rec := &recorder{}
	skipped := NewStep("package")
	skipped.AddMainAction(rec.action("package", 0))
	ok, err := skipped.Execute(t.Context(), proc)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ResultSkipped, skipped.Result())
	assert.Empty(t, rec.calls)

	cleanup := NewStep("cleanup")
	cleanup.SetRunOnFailure(true)
	cleanup.AddMainAction(rec.action("cleanup", 0))
	ok, err = cleanup.Execute(t.Context(), proc)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ResultSuccess, cleanup.Result())
	assert.Equal(t, []string{"cleanup"}, rec.calls)
}

func TestEmptyStepIsNoOp(t *testing.T) {
	s := NewStep("empty")
	assert.True(t, s.IsEmpty())
	ok, err := s.Execute(t.Context(), process.New())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ResultSuccess, s.Result())
}

func TestStepWritesLogFile(t *testing.T) {
	rec := &recorder{}
	logFile := filepath.Join(t.TempDir(), "logs", "build.log")
	s := NewStep("build")
	s.SetLogFile(logFile)
	s.AddMainAction(rec.action("compile", 0))
	s.AddMainAction(NewAction(RunnerFunc{Name: "quiet", Fn: func(context.Context, *process.Context) (Outcome, error) {
		return Outcome{}, nil
	}}))

	_, err := s.Execute(t.Context(), process.New())
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# compile")
	assert.Contains(t, string(data), "compile\n")
	assert.Contains(t, string(data), `(The action "quiet" did not generate any output.)`)
}

func TestStepInternalErrorPropagates(t *testing.T) {
	s := NewStep("broken")
	s.AddMainAction(NewAction(staticRunner(Outcome{}, errors.InternalError("contract").Build())))
	ok, err := s.Execute(t.Context(), process.New())
	assert.False(t, ok)
	assert.True(t, errors.IsInternal(err))
}

func TestStepCloneIsFresh(t *testing.T) {
	rec := &recorder{}
	s := NewStep("build")
	s.SetRunOnFailure(true)
	s.AddPreAction(rec.action("pre", 0))
	s.AddMainAction(rec.action("main", 1))
	s.SetLogFile(filepath.Join(t.TempDir(), "build.log"))
	_, _ = s.Execute(t.Context(), process.New())

	cp := s.Clone()
	assert.Empty(t, cp.LogFile())
	assert.Equal(t, StatusNotExecuted, cp.Status())
	assert.Equal(t, ResultNotRun, cp.Result())
	assert.True(t, cp.RunOnFailure())
	require.Len(t, cp.Actions(), 2)
	assert.False(t, cp.Actions()[0].Finished())
	assert.Equal(t, ResultFailure, s.Result())
}
