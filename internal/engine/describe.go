package engine

import (
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/makeomatic/internal/execution"
)

// Describe writes a human readable outline of the tree: nodes with their kind, enabled
// plugins, and the steps that have actions. Steps without actions are left out.
func Describe(w io.Writer, root *Node) error {
	var b strings.Builder
	describeNode(&b, root, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func describeNode(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s (%s)\n", indent, n.name, n.kind)
	for _, p := range n.plugins {
		state := "enabled"
		if !p.Enabled() {
			state = "disabled"
		}
		if p.Optional() {
			state += ", optional"
		}
		fmt.Fprintf(b, "%s  plugin %s [%s]\n", indent, p.Name(), state)
	}
	for _, s := range n.steps {
		if s.IsEmpty() {
			continue
		}
		describeStep(b, s, indent+"  ")
	}
	for _, c := range n.children {
		describeNode(b, c, depth+1)
	}
}

func describeStep(b *strings.Builder, s *execution.Step, indent string) {
	state := "enabled"
	if !s.Enabled() {
		state = "disabled"
	}
	if s.Status() == execution.StatusDone {
		state = s.Result().String()
	}
	fmt.Fprintf(b, "%sstep %s [%s]\n", indent, s.Name(), state)
	lists := []struct {
		label   string
		actions []*execution.Action
	}{
		{"pre", s.PreActions()},
		{"main", s.MainActions()},
		{"post", s.PostActions()},
	}
	for _, l := range lists {
		for _, a := range l.actions {
			fmt.Fprintf(b, "%s  %s: %s\n", indent, l.label, a.Description())
		}
	}
}
