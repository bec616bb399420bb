//go:build windows

package firefox

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// signalGroup kills the main process regardless of force: Windows cannot
// deliver an interrupt to another console process. Firefox tears down its
// own children.
func signalGroup(cmd *exec.Cmd, force bool) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
