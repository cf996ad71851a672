package report

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/metrics"
)

// Report describes one build.
type Report struct {
	BuildID     string     `json:"build_id,omitempty"`
	BuildType   string     `json:"build_type"`
	Description string     `json:"description,omitempty"`
	Host        string     `json:"host,omitempty"`
	ReturnCode  int        `json:"return_code"`
	Outcome     string     `json:"outcome"`
	GeneratedAt time.Time  `json:"generated_at"`
	Root        NodeReport `json:"root"`
}

// NodeReport describes one node and its subtree.
type NodeReport struct {
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Path     string       `json:"path"`
	LogDir   string       `json:"log_dir,omitempty"`
	Duration string       `json:"duration"`
	Failed   bool         `json:"failed"`
	Plugins  []string     `json:"plugins,omitempty"`
	Steps    []StepReport `json:"steps,omitempty"`
	Children []NodeReport `json:"children,omitempty"`
}

// StepReport describes a step that had at least one action.
type StepReport struct {
	Name     string         `json:"name"`
	Enabled  bool           `json:"enabled"`
	Status   string         `json:"status"`
	Result   string         `json:"result"`
	Duration string         `json:"duration"`
	LogFile  string         `json:"log_file,omitempty"`
	Actions  []ActionReport `json:"actions"`
}

// ActionReport describes one action of a step.
type ActionReport struct {
	Stage       string `json:"stage"`
	Description string `json:"description"`
	WorkDir     string `json:"work_dir,omitempty"`
	Finished    bool   `json:"finished"`
	Result      *int   `json:"result,omitempty"`
	TimedOut    bool   `json:"timed_out,omitempty"`
	Duration    string `json:"duration"`
}

// Info carries the build level values that are not part of the tree.
type Info struct {
	BuildID     string
	BuildType   string
	Description string
	Host        string
	ReturnCode  int
}

// Build creates the report for the tree below root.
func Build(root *engine.Node, info Info) *Report {
	return &Report{
		BuildID:     info.BuildID,
		BuildType:   info.BuildType,
		Description: info.Description,
		Host:        info.Host,
		ReturnCode:  info.ReturnCode,
		Outcome:     string(metrics.OutcomeForCode(info.ReturnCode)),
		GeneratedAt: time.Now().UTC(),
		Root:        buildNode(root),
	}
}

func buildNode(n *engine.Node) NodeReport {
	nr := NodeReport{
		Name:     n.Name(),
		Kind:     n.Kind().String(),
		Path:     n.Path(),
		LogDir:   n.LogDir(),
		Duration: n.TimeKeeper().DeltaString(),
		Failed:   n.HasFailedRecursively(),
	}
	for _, p := range n.Plugins() {
		if p.Enabled() {
			nr.Plugins = append(nr.Plugins, p.Name())
		}
	}
	for _, s := range n.Steps() {
		if s.IsEmpty() {
			continue
		}
		nr.Steps = append(nr.Steps, buildStep(s))
	}
	for _, c := range n.Children() {
		nr.Children = append(nr.Children, buildNode(c))
	}
	return nr
}

func buildStep(s *execution.Step) StepReport {
	sr := StepReport{
		Name:     s.Name(),
		Enabled:  s.Enabled(),
		Status:   s.Status().String(),
		Result:   s.Result().String(),
		Duration: s.TimeKeeper().DeltaString(),
		LogFile:  s.LogFile(),
	}
	stages := []struct {
		name    string
		actions []*execution.Action
	}{
		{"pre", s.PreActions()},
		{"main", s.MainActions()},
		{"post", s.PostActions()},
	}
	for _, st := range stages {
		for _, a := range st.actions {
			sr.Actions = append(sr.Actions, buildAction(st.name, a))
		}
	}
	return sr
}

func buildAction(stage string, a *execution.Action) ActionReport {
	ar := ActionReport{
		Stage:       stage,
		Description: a.Description(),
		WorkDir:     a.WorkDir(),
		Finished:    a.Finished(),
		Duration:    a.TimeKeeper().DeltaString(),
	}
	if res, err := a.Result(); err == nil {
		ar.Result = &res
	}
	if timedOut, err := a.TimedOut(); err == nil {
		ar.TimedOut = timedOut
	}
	return ar
}

// FailedSteps lists "<node path>/<step>" for every failed step, in tree order.
func (r *Report) FailedSteps() []string {
	var out []string
	var walk func(n NodeReport)
	walk = func(n NodeReport) {
		for _, s := range n.Steps {
			if s.Result == execution.ResultFailure.String() {
				out = append(out, n.Path+"/"+s.Name)
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(r.Root)
	return out
}

// JSON encodes the report with indentation.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
