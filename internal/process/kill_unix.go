//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// down the browser together with its renderer and GPU helpers. Non-positive
// pids are ignored.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// launcher.Kill already signalled the leader; this only reaps helpers
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
