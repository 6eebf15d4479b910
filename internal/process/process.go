// Package process terminates browser process trees.
package process

import "errors"

// ErrInvalidPID is returned for PIDs that would address the caller's own
// process group or init.
var ErrInvalidPID = errors.New("invalid pid")

// KillTree force-kills pid and its children. PIDs <= 1 are refused.
func KillTree(pid int) error {
	if pid <= 1 {
		return ErrInvalidPID
	}
	return killTree(pid)
}
