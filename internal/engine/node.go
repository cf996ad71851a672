package engine

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/timekeeper"
)

// Kind is the role of a node in the tree.
type Kind int

const (
	KindBuild Kind = iota
	KindProject
	KindConfiguration
	KindVariant
)

func (k Kind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindProject:
		return "project"
	case KindConfiguration:
		return "configuration"
	case KindVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// Node is an instruction node. It exclusively owns its children, plugins and steps.
type Node struct {
	name string
	kind Kind

	parent   *Node
	children []*Node
	plugins  []Plugin
	steps    []*execution.Step
	handler  Hooks

	requestedBaseDir string
	baseDir          string
	logDir           string
	packagesDir      string

	phase        Phase
	deleteLogDir bool
	timer        *timekeeper.TimeKeeper
}

// NewNode returns a detached node with the default handler for its kind.
func NewNode(name string, kind Kind) *Node {
	return &Node{
		name:         name,
		kind:         kind,
		handler:      defaultHooks{},
		phase:        PhaseStart,
		deleteLogDir: true,
		timer:        &timekeeper.TimeKeeper{},
	}
}

// Name is the node name as given, not normalized.
func (n *Node) Name() string { return n.name }

// SetName renames the node. Use it on clones before attaching them.
func (n *Node) SetName(name string) { n.name = name }

func (n *Node) Kind() Kind { return n.kind }

// Parent returns the owning node, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Path names the node by the names of its ancestors, e.g. "build/project/Debug".
func (n *Node) Path() string {
	var parts []string
	for c := n; c != nil; c = c.parent {
		parts = append(parts, c.name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// CurrentPhase is the last phase the engine ran on the node.
func (n *Node) CurrentPhase() Phase { return n.phase }

// SetHandler replaces the node's own phase handler.
func (n *Node) SetHandler(h Hooks) { n.handler = h }

// SetBaseDir requests a base directory for a root node. It takes effect in PreFlightCheck.
func (n *Node) SetBaseDir(dir string) { n.requestedBaseDir = dir }

// BaseDir is only known after PreFlightCheck; asking earlier is a configuration error.
func (n *Node) BaseDir() (string, error) {
	if n.baseDir == "" {
		return "", errors.ConfigError("base directory can only be queried after preFlightCheck").
			WithContext("node", n.Path()).
			Build()
	}
	return n.baseDir, nil
}

// LogDir is set in PreFlightCheck.
func (n *Node) LogDir() string { return n.logDir }

// PackagesDir is the build-wide packages directory, set in PreFlightCheck.
func (n *Node) PackagesDir() string { return n.packagesDir }

// DeleteLogDirOnShutdown reports whether ShutDown removes the log directory.
func (n *Node) DeleteLogDirOnShutdown() bool { return n.deleteLogDir }

// SetDeleteLogDirOnShutdown changes whether ShutDown removes the log directory. It is
// cleared automatically on any failure; reporters may set it again once the logs are
// published elsewhere.
func (n *Node) SetDeleteLogDirOnShutdown(on bool) { n.deleteLogDir = on }

func (n *Node) TimeKeeper() *timekeeper.TimeKeeper { return n.timer }

// Children returns the owned children in insertion order. Use AddChild and
// RemoveChild to change them.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) Plugins() []Plugin { return n.plugins }

// Steps returns the steps in insertion order.
func (n *Node) Steps() []*execution.Step { return n.steps }

// AddChild attaches child at the end of the child list. A child that already has a
// parent, including this node, or that is an ancestor of this node is rejected with an
// internal error.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return errors.InternalError("cannot add nil child").WithContext("node", n.Path()).Build()
	}
	if child.parent != nil {
		return errors.InternalError("a child can be added to a parent only once").
			WithContext("node", n.Path()).
			WithContext("child", child.Path()).
			Build()
	}
	for a := n; a != nil; a = a.parent {
		if a == child {
			return errors.InternalError("cannot add an ancestor as a child").
				WithContext("node", n.Path()).
				Build()
		}
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// RemoveChild detaches child. Removing a node this node does not own is an internal error.
func (n *Node) RemoveChild(child *Node) error {
	i := slices.Index(n.children, child)
	if i < 0 {
		return errors.InternalError("cannot remove a child this node does not own").
			WithContext("node", n.Path()).
			Build()
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return nil
}

// Index returns the position of child among the children.
func (n *Node) Index(child *Node) (int, error) {
	i := slices.Index(n.children, child)
	if i < 0 {
		return 0, errors.InternalError("unknown child").WithContext("node", n.Path()).Build()
	}
	return i, nil
}

// AddPlugin appends p. Plugins run after the node's handler and children.
func (n *Node) AddPlugin(p Plugin) {
	n.plugins = append(n.plugins, p)
}

// AddStep appends a step. Step names are unique within a node.
func (n *Node) AddStep(s *execution.Step) error {
	if s == nil || s.Name() == "" {
		return errors.InternalError("every step must have a name").WithContext("node", n.Path()).Build()
	}
	if n.Step(s.Name()) != nil {
		return errors.InternalError("a step with this name already exists").
			WithContext("node", n.Path()).
			WithContext("step", s.Name()).
			Build()
	}
	n.steps = append(n.steps, s)
	return nil
}

// Step returns the step called name, or nil.
func (n *Node) Step(name string) *execution.Step {
	for _, s := range n.steps {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// RequireStep is Step for callers that rely on the step being declared.
func (n *Node) RequireStep(name string) (*execution.Step, error) {
	if s := n.Step(name); s != nil {
		return s, nil
	}
	return nil, errors.ConfigError("no such step").
		WithContext("node", n.Path()).
		WithContext("step", name).
		Build()
}

// FailedSteps lists the steps of this node whose result is Failure.
func (n *Node) FailedSteps() []*execution.Step {
	var failed []*execution.Step
	for _, s := range n.steps {
		if s.Failed() {
			failed = append(failed, s)
		}
	}
	return failed
}

// HasFailed reports whether a step of this node failed.
func (n *Node) HasFailed() bool {
	return len(n.FailedSteps()) > 0
}

// HasFailedRecursively reports whether a step of this node or of any descendant failed.
func (n *Node) HasFailedRecursively() bool {
	for _, c := range n.children {
		if c.HasFailedRecursively() {
			return true
		}
	}
	return n.HasFailed()
}

// keepsLogs reports whether any node in the subtree must keep its logs.
func (n *Node) keepsLogs() bool {
	if !n.deleteLogDir || n.HasFailed() {
		return true
	}
	for _, c := range n.children {
		if c.keepsLogs() {
			return true
		}
	}
	return false
}

// Walk calls fn for n and every descendant, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Clone returns a detached deep copy: cloned plugins, children and steps, a fresh timer
// and no directories or phase progress.
func (n *Node) Clone() *Node {
	cp := NewNode(n.name, n.kind)
	cp.handler = n.handler
	cp.requestedBaseDir = n.requestedBaseDir
	for _, p := range n.plugins {
		cp.plugins = append(cp.plugins, p.Clone())
	}
	for _, s := range n.steps {
		cp.steps = append(cp.steps, s.Clone())
	}
	for _, c := range n.children {
		cc := c.Clone()
		cc.parent = cp
		cp.children = append(cp.children, cc)
	}
	return cp
}
