package engine

// Phase is one stage of the build lifecycle.
type Phase int

const (
	PhaseStart Phase = iota
	PhasePrepare
	PhasePreFlightCheck
	PhaseSetup
	PhaseExecute
	PhaseWrapUp
	PhaseReport
	PhaseNotify
	PhaseShutDown

	phaseCount
)

var phaseNames = [phaseCount]string{
	PhaseStart:          "_start",
	PhasePrepare:        "prepare",
	PhasePreFlightCheck: "preFlightCheck",
	PhaseSetup:          "setup",
	PhaseExecute:        "execute",
	PhaseWrapUp:         "wrapUp",
	PhaseReport:         "report",
	PhaseNotify:         "notify",
	PhaseShutDown:       "shutDown",
}

// String returns the handler identifier of the phase.
func (p Phase) String() string {
	if p < 0 || p >= phaseCount {
		return "unknown"
	}
	return phaseNames[p]
}

// BuildPhases run first; an error in any of them ends this part of the build.
var BuildPhases = []Phase{PhasePrepare, PhasePreFlightCheck, PhaseSetup, PhaseExecute}

// CleanupPhases always run after BuildPhases, whatever happened before.
var CleanupPhases = []Phase{PhaseWrapUp, PhaseReport, PhaseNotify, PhaseShutDown}

// IsCleanup reports whether plugin errors are caught unconditionally in p.
func (p Phase) IsCleanup() bool {
	return p >= PhaseWrapUp && p <= PhaseShutDown
}
