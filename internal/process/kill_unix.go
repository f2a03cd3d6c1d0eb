//go:build !windows

// Package process stops the process trees a headless browser leaves behind.
package process

import "syscall"

// KillGroup sends SIGKILL to the process group led by pid, taking Chrome's
// helper processes down with it. Errors are ignored: the group is usually
// gone already once the launcher has killed the leader.
func KillGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
