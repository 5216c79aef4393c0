//go:build !windows

package process

import "syscall"

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID). Figure interpreters may spawn
// renderer subprocesses of their own; a plain process kill would orphan them.
func KillProcessGroup(pid int) {
	// Best-effort cleanup; error ignored as CommandContext provides fallback
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
