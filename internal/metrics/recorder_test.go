package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObservePhaseDuration("setup", time.Millisecond)
		r.ObserveStepDuration("x", time.Millisecond)
		r.IncStepResult("x", "success")
		r.IncPluginError("p", "setup")
		r.ObserveBuildDuration(time.Second)
		r.IncBuildOutcome(BuildOutcomeSuccess)
		r.IncRetry("op")
		r.IncRetryExhausted("op")
	})
}

func TestOutcomeForCode(t *testing.T) {
	assert.Equal(t, BuildOutcomeSuccess, OutcomeForCode(0))
	assert.Equal(t, BuildOutcomeFailed, OutcomeForCode(1))
	assert.Equal(t, BuildOutcomeConfiguration, OutcomeForCode(2))
	assert.Equal(t, BuildOutcomeInternal, OutcomeForCode(3))
	assert.Equal(t, BuildOutcomeInternal, OutcomeForCode(42))
}
