package daemon

import (
	"fmt"
	"net"
	"path/filepath"
	"time"
)

// LifecycleManager guards a single daemon instance per base directory with
// a lock file and records its pid.
type LifecycleManager struct {
	lockFile   *LockFile
	pidFile    *PIDFile
	socketPath string
}

func NewLifecycleManager(baseDir, socketPath string) *LifecycleManager {
	return &LifecycleManager{
		lockFile:   NewLockFile(filepath.Join(baseDir, "daemon.lock")),
		pidFile:    NewPIDFile(filepath.Join(baseDir, "daemon.pid")),
		socketPath: socketPath,
	}
}

// Acquire takes the instance lock and writes the pid file. The error wraps
// ErrLockHeld when another instance is running.
func (lm *LifecycleManager) Acquire() error {
	if err := lm.lockFile.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if err := lm.pidFile.Write(); err != nil {
		lm.lockFile.Release()
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// IsRunning reports whether a live process owns the pid file and the socket
// accepts connections.
func (lm *LifecycleManager) IsRunning() bool {
	return lm.pidFile.IsProcessAlive() && lm.isSocketResponsive()
}

func (lm *LifecycleManager) isSocketResponsive() bool {
	conn, err := net.DialTimeout("unix", lm.socketPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (lm *LifecycleManager) Cleanup() {
	lm.pidFile.Remove()
	lm.lockFile.Release()
}

func (lm *LifecycleManager) PIDFile() *PIDFile {
	return lm.pidFile
}
