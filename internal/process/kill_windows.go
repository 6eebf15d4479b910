//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// killTree runs taskkill /F /T, which force-kills pid and its child tree.
func killTree(pid int) error {
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
