//go:build !windows

package firefox

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts Firefox and its content processes in one group so
// they can be signalled together.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// signalGroup sends SIGTERM, or SIGKILL when force is set, to the whole
// process group.
func signalGroup(cmd *exec.Cmd, force bool) {
	if cmd.Process == nil {
		return
	}
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	_ = syscall.Kill(-cmd.Process.Pid, sig)
}
