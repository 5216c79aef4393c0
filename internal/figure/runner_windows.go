//go:build windows

package figure

import "os/exec"

// setProcessGroup is a no-op on Windows; KillProcessGroup uses taskkill /T
// for tree termination instead.
func setProcessGroup(cmd *exec.Cmd) {}
