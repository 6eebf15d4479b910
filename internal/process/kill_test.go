package process

// Notes:
// - Real termination is covered by the browser integration tests; here we
//   only check the PID guard and that a missing process is reported, not
//   panicked on.
// - PID 0 and 1 must never reach the syscall: -0 is our own process group.

import (
	"errors"
	"testing"
)

func TestKillTree_RefusesUnsafePIDs(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{-5, 0, 1} {
		if err := KillTree(pid); !errors.Is(err, ErrInvalidPID) {
			t.Errorf("KillTree(%d) error = %v, want ErrInvalidPID", pid, err)
		}
	}
}

func TestKillTree_MissingProcess(t *testing.T) {
	t.Parallel()

	if err := KillTree(999999999); err == nil {
		t.Error("KillTree(nonexistent) error = nil, want error")
	}
}
