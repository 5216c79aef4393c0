//go:build !windows

package figure

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the interpreter in its own process group so the whole
// tree can be killed on timeout.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
