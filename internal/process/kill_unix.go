//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort; the runner still reaps the direct child through Wait.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// setProcessGroup starts the command in its own process group so that
// KillProcessGroup reaches helpers spawned by the rasterizer.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
