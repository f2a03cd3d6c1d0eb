//go:build windows

// Package process stops the process trees a headless browser leaves behind.
package process

import (
	"os/exec"
	"strconv"
)

// KillGroup force-kills pid and its child processes with taskkill.
// Errors are ignored: the tree is usually gone already.
func KillGroup(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is an int
}
