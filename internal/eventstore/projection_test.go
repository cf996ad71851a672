package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendAt(t *testing.T, store *SQLiteStore, at time.Time, e Event) {
	t.Helper()
	store.now = func() time.Time { return at }
	require.NoError(t, AppendEvent(t.Context(), store, e))
}

func TestProjectionRebuild(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	started, err := NewBuildStarted("b1", BuildStartedMeta{Name: "nightly", BuildType: "d", Host: "ci-1"})
	require.NoError(t, err)
	appendAt(t, store, t0, started)

	ok, err := NewStepFinished("b1", StepFinishedMeta{Node: "nightly/app", Step: "conf-make", Result: "success"})
	require.NoError(t, err)
	appendAt(t, store, t0.Add(time.Minute), ok)
	bad, err := NewStepFinished("b1", StepFinishedMeta{Node: "nightly/app", Step: "conf-make-test", Result: "failure"})
	require.NoError(t, err)
	appendAt(t, store, t0.Add(2*time.Minute), bad)
	skipped, err := NewStepFinished("b1", StepFinishedMeta{Node: "nightly/app", Step: "conf-package", Result: "skipped"})
	require.NoError(t, err)
	appendAt(t, store, t0.Add(2*time.Minute), skipped)

	phase, err := NewPhaseCompleted("b1", PhaseCompletedMeta{Phase: "report", ReturnCode: 1})
	require.NoError(t, err)
	appendAt(t, store, t0.Add(3*time.Minute), phase)
	finished, err := NewBuildFinished("b1", BuildFinishedMeta{ReturnCode: 1})
	require.NoError(t, err)
	appendAt(t, store, t0.Add(4*time.Minute), finished)

	started2, err := NewBuildStarted("b2", BuildStartedMeta{Name: "nightly", BuildType: "c"})
	require.NoError(t, err)
	appendAt(t, store, t0.Add(time.Hour), started2)

	proj := NewBuildHistoryProjection(store, 10)
	require.NoError(t, proj.Rebuild(t.Context()))

	history := proj.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "b2", history[0].BuildID)
	assert.Equal(t, StatusRunning, history[0].Status)

	b1, found := proj.GetBuild("b1")
	require.True(t, found)
	assert.Equal(t, StatusFailed, b1.Status)
	assert.Equal(t, "nightly", b1.Name)
	assert.Equal(t, "ci-1", b1.Host)
	assert.Equal(t, 2, b1.StepsRun)
	assert.Equal(t, []string{"nightly/app/conf-make-test"}, b1.FailedSteps)
	assert.Equal(t, 4*time.Minute, b1.Duration)
	assert.Equal(t, "report", b1.LastPhase)

	last := proj.GetLastCompletedBuild()
	require.NotNil(t, last)
	assert.Equal(t, "b1", last.BuildID)
}

func TestProjectionApplyAndTrim(t *testing.T) {
	proj := NewBuildHistoryProjection(nil, 2)
	for _, id := range []string{"a", "b", "c"} {
		e, err := NewBuildStarted(id, BuildStartedMeta{Name: id})
		require.NoError(t, err)
		proj.Apply(e)
	}
	finished, err := NewBuildFinished("c", BuildFinishedMeta{})
	require.NoError(t, err)
	proj.Apply(finished)

	history := proj.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].BuildID)
	assert.Equal(t, StatusSucceeded, history[0].Status)
	_, found := proj.GetBuild("a")
	assert.False(t, found)
}
