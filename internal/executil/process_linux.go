package executil

import (
	"os/exec"
	"syscall"
)

// setProcessGroup places the child in its own process group so terminate
// can be extended to a process-group signal if a future caller needs to
// reach descendants spawned by argv[0] itself.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
