//go:build !windows

package execution

import (
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"
)

const groupPollInterval = 25 * time.Millisecond

// configureTermination starts the command in its own process group. On cancellation the
// group is sent SIGTERM. The returned reap func must be called once Wait has returned: it
// waits out the rest of the grace period for the group to exit and then sends SIGKILL to
// whatever is left, so descendants that ignore SIGTERM do not outlive the action.
func configureTermination(cmd *exec.Cmd, grace time.Duration) (reap func()) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var canceledAt atomic.Int64
	cmd.Cancel = func() error {
		canceledAt.Store(time.Now().UnixNano())
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	return func() {
		at := canceledAt.Load()
		if at == 0 || cmd.Process == nil {
			return
		}
		pgid := cmd.Process.Pid
		deadline := time.Unix(0, at).Add(grace)
		for time.Now().Before(deadline) {
			if syscall.Kill(-pgid, 0) != nil {
				return
			}
			time.Sleep(groupPollInterval)
		}
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}
}
