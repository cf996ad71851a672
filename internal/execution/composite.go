package execution

import (
	"bytes"
	"context"
	"strings"

	"git.home.luguber.info/inful/makeomatic/internal/process"
)

// Composite runs a list of actions in order and stops at the first non-zero result.
type Composite struct {
	Name    string
	Actions []*Action
}

func (c *Composite) Description() string {
	if c.Name != "" {
		return c.Name
	}
	descs := make([]string, 0, len(c.Actions))
	for _, a := range c.Actions {
		descs = append(descs, a.Description())
	}
	return strings.Join(descs, " && ")
}

func (c *Composite) Run(ctx context.Context, proc *process.Context) (Outcome, error) {
	var stdout, stderr bytes.Buffer
	for _, a := range c.Actions {
		result, err := a.Execute(ctx, proc, nil)
		if err != nil {
			return Outcome{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
		}
		out, _ := a.Stdout()
		errOut, _ := a.Stderr()
		timedOut, _ := a.TimedOut()
		stdout.Write(out)
		stderr.Write(errOut)
		if result != 0 {
			return Outcome{Result: result, Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), TimedOut: timedOut}, nil
		}
	}
	return Outcome{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

func (c *Composite) CloneRunner() Runner {
	cp := &Composite{Name: c.Name, Actions: make([]*Action, 0, len(c.Actions))}
	for _, a := range c.Actions {
		cp.Actions = append(cp.Actions, a.Clone())
	}
	return cp
}
