//go:build windows

package execution

import (
	"os/exec"
	"time"
)

func configureTermination(cmd *exec.Cmd, _ time.Duration) (reap func()) {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
	return func() {}
}
