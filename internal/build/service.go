package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
)

// BuildService runs builds described by a Config.
type BuildService interface {
	// Run builds the instruction tree, runs every phase and reports the outcome. The
	// returned error is the first error of the build phases, if any.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains the inputs of one build.
type BuildRequest struct {
	// Config is the loaded and validated build description.
	Config *config.Config

	// BuildID identifies the build in logs, history and notifications. Empty means a
	// fresh UUID.
	BuildID string
}

// BuildResult contains the outcome of a build.
type BuildResult struct {
	BuildID string

	Status BuildStatus

	// ReturnCode is the tree-wide process return code.
	ReturnCode int

	// Root is the instruction tree after the build, for reporting.
	Root *engine.Node

	// FailedSteps lists "<node path>/<step>" for every failed step.
	FailedSteps []string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// BuildStatus represents the outcome of a build.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
