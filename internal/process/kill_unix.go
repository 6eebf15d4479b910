//go:build !windows

package process

import "syscall"

// killTree sends SIGKILL to the process group led by pid. The browser
// launcher starts Chrome as a group leader, so helpers and renderers go too.
func killTree(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
