package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Build status values of a BuildSummary.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// BuildSummary is a read model of one build.
type BuildSummary struct {
	BuildID     string        `json:"build_id"`
	Name        string        `json:"name"`
	BuildType   string        `json:"build_type"`
	Host        string        `json:"host"`
	Status      string        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	ReturnCode  int           `json:"return_code"`
	LastPhase   string        `json:"last_phase,omitempty"`
	StepsRun    int           `json:"steps_run"`
	FailedSteps []string      `json:"failed_steps,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history,
// reconstructed from events stored in the event store.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	history []*BuildSummary // newest first
	maxSize int
}

// NewBuildHistoryProjection creates a new projection backed by the given store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.builds = make(map[string]*BuildSummary)
	p.history = nil
	for _, event := range events {
		p.applyEventLocked(event)
	}
	for _, s := range p.builds {
		p.history = append(p.history, s)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		for _, s := range p.history[p.maxSize:] {
			delete(p.builds, s.BuildID)
		}
		p.history = p.history[:p.maxSize]
	}
	return nil
}

// Apply processes a single event and updates the projection.
func (p *BuildHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, known := p.builds[event.BuildID()]
	p.applyEventLocked(event)
	s, ok := p.builds[event.BuildID()]
	if known || !ok {
		return
	}
	p.history = append([]*BuildSummary{s}, p.history...)
	if len(p.history) > p.maxSize {
		delete(p.builds, p.history[p.maxSize].BuildID)
		p.history = p.history[:p.maxSize]
	}
}

func (p *BuildHistoryProjection) applyEventLocked(event Event) {
	buildID := event.BuildID()
	if buildID == "" {
		return
	}

	summary, exists := p.builds[buildID]
	if !exists {
		summary = &BuildSummary{
			BuildID:   buildID,
			Status:    StatusRunning,
			StartedAt: event.Timestamp(),
		}
		p.builds[buildID] = summary
	}

	switch event.Type() {
	case TypeBuildStarted:
		if meta, ok := DecodeMeta[BuildStartedMeta](event); ok {
			summary.Name = meta.Name
			summary.BuildType = meta.BuildType
			summary.Host = meta.Host
		}
		summary.StartedAt = event.Timestamp()

	case TypePhaseCompleted:
		if meta, ok := DecodeMeta[PhaseCompletedMeta](event); ok {
			summary.LastPhase = meta.Phase
		}

	case TypeStepFinished:
		meta, ok := DecodeMeta[StepFinishedMeta](event)
		if !ok {
			return
		}
		switch meta.Result {
		case "success":
			summary.StepsRun++
		case "failure":
			summary.StepsRun++
			summary.FailedSteps = append(summary.FailedSteps, meta.Node+"/"+meta.Step)
		}

	case TypeBuildFinished:
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Duration = now.Sub(summary.StartedAt)
		if meta, ok := DecodeMeta[BuildFinishedMeta](event); ok {
			summary.ReturnCode = meta.ReturnCode
		}
		summary.Status = StatusSucceeded
		if summary.ReturnCode != 0 {
			summary.Status = StatusFailed
		}
	}
}

// GetHistory returns the build history, newest first.
func (p *BuildHistoryProjection) GetHistory() []*BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*BuildSummary, len(p.history))
	copy(result, p.history)
	return result
}

// GetBuild returns the summary for a specific build.
func (p *BuildHistoryProjection) GetBuild(buildID string) (*BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.builds[buildID]
	if !exists {
		return nil, false
	}
	cp := *summary
	return &cp, true
}

// GetLastCompletedBuild returns the most recently started build that has finished.
func (p *BuildHistoryProjection) GetLastCompletedBuild() *BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, s := range p.history {
		if s.Status != StatusRunning {
			cp := *s
			return &cp
		}
	}
	return nil
}
