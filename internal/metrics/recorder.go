package metrics

import "time"

// BuildOutcomeLabel enumerates final build states.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess       BuildOutcomeLabel = "success"
	BuildOutcomeFailed        BuildOutcomeLabel = "failed"
	BuildOutcomeConfiguration BuildOutcomeLabel = "configuration_error"
	BuildOutcomeInternal      BuildOutcomeLabel = "internal_error"
)

// OutcomeForCode maps a process return code to a BuildOutcomeLabel.
func OutcomeForCode(code int) BuildOutcomeLabel {
	switch code {
	case 0:
		return BuildOutcomeSuccess
	case 1:
		return BuildOutcomeFailed
	case 2:
		return BuildOutcomeConfiguration
	default:
		return BuildOutcomeInternal
	}
}

// Recorder defines observability hooks for phases, steps and whole builds.
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step string, result string)
	IncPluginError(plugin, phase string)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncRetry(operation string)
	IncRetryExhausted(operation string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(string, time.Duration) {}
func (NoopRecorder) ObserveStepDuration(string, time.Duration)  {}
func (NoopRecorder) IncStepResult(string, string)               {}
func (NoopRecorder) IncPluginError(string, string)              {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) IncRetry(string)                            {}
func (NoopRecorder) IncRetryExhausted(string)                   {}
