package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// Event type names.
const (
	TypeBuildStarted   = "BuildStarted"
	TypePhaseCompleted = "PhaseCompleted"
	TypeStepFinished   = "StepFinished"
	TypeBuildFinished  = "BuildFinished"
)

// BuildStartedMeta describes a build when it begins.
type BuildStartedMeta struct {
	Name      string `json:"name"`
	BuildType string `json:"build_type"`
	Host      string `json:"host"`
}

// BuildStarted is emitted during Prepare.
type BuildStarted struct {
	BaseEvent
	Meta BuildStartedMeta
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, meta BuildStartedMeta) (*BuildStarted, error) {
	base, err := newBase(buildID, TypeBuildStarted, meta)
	if err != nil {
		return nil, err
	}
	return &BuildStarted{BaseEvent: base, Meta: meta}, nil
}

// PhaseCompletedMeta records the end of a phase for the whole tree.
type PhaseCompletedMeta struct {
	Phase      string `json:"phase"`
	ReturnCode int    `json:"return_code"`
}

// PhaseCompleted is emitted once per phase.
type PhaseCompleted struct {
	BaseEvent
	Meta PhaseCompletedMeta
}

// NewPhaseCompleted creates a PhaseCompleted event.
func NewPhaseCompleted(buildID string, meta PhaseCompletedMeta) (*PhaseCompleted, error) {
	base, err := newBase(buildID, TypePhaseCompleted, meta)
	if err != nil {
		return nil, err
	}
	return &PhaseCompleted{BaseEvent: base, Meta: meta}, nil
}

// StepFinishedMeta records one executed or skipped step.
type StepFinishedMeta struct {
	Node       string `json:"node"`
	Step       string `json:"step"`
	Result     string `json:"result"`
	DurationMS int64  `json:"duration_ms"`
	LogFile    string `json:"log_file,omitempty"`
}

// StepFinished is emitted after Execute for every step in the tree.
type StepFinished struct {
	BaseEvent
	Meta StepFinishedMeta
}

// NewStepFinished creates a StepFinished event.
func NewStepFinished(buildID string, meta StepFinishedMeta) (*StepFinished, error) {
	base, err := newBase(buildID, TypeStepFinished, meta)
	if err != nil {
		return nil, err
	}
	return &StepFinished{BaseEvent: base, Meta: meta}, nil
}

// BuildFinishedMeta is the outcome of a build.
type BuildFinishedMeta struct {
	ReturnCode  int      `json:"return_code"`
	DurationMS  int64    `json:"duration_ms"`
	FailedSteps []string `json:"failed_steps,omitempty"`
}

// BuildFinished is emitted during Report.
type BuildFinished struct {
	BaseEvent
	Meta BuildFinishedMeta
}

// NewBuildFinished creates a BuildFinished event.
func NewBuildFinished(buildID string, meta BuildFinishedMeta) (*BuildFinished, error) {
	base, err := newBase(buildID, TypeBuildFinished, meta)
	if err != nil {
		return nil, err
	}
	return &BuildFinished{BaseEvent: base, Meta: meta}, nil
}

func newBase(buildID, eventType string, meta any) (BaseEvent, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return BaseEvent{}, errors.WrapError(err, errors.CategoryInternal, "failed to marshal event payload").
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}
