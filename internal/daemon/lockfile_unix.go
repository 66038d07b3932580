//go:build unix

package daemon

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// flock is advisory and released by the kernel if the daemon dies.
func (l *LockFile) platformLock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

func (l *LockFile) platformUnlock(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
