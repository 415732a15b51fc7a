// Package lock serialises pipeline runs on a directory across processes.
package lock

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/Ning0612/aud/internal/domain"
)

// LockInfo contains metadata about the lock holder
type LockInfo struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartTime time.Time `json:"start_time"`
	Directory string    `json:"directory"`
	Action    string    `json:"action,omitempty"`
}

// DirLock is an exclusive, non-blocking lock on one music directory.
// The lock itself is an flock on <lockDir>/<sha1(dir)>.lock, released by
// the kernel if the holder dies; holder details live in a JSON file
// next to it.
type DirLock struct {
	dir      string
	lockPath string
	fl       *flock.Flock
	info     *LockInfo
}

// NewDirLock creates a lock for dir. An empty lockDir means the user
// config directory.
func NewDirLock(lockDir, dir string) (*DirLock, error) {
	if lockDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config dir: %w", err)
		}
		lockDir = filepath.Join(configDir, "aud", "locks")
	}

	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	sum := sha1.Sum([]byte(abs))
	lockPath := filepath.Join(lockDir, hex.EncodeToString(sum[:])+".lock")

	return &DirLock{
		dir:      abs,
		lockPath: lockPath,
		fl:       flock.New(lockPath),
	}, nil
}

// Path returns the lock file path
func (l *DirLock) Path() string {
	return l.lockPath
}

// Acquire takes the lock for action. Acquiring a lock this instance
// already holds only updates the recorded action.
func (l *DirLock) Acquire(action string) error {
	if l.info != nil {
		l.info.Action = action
		return l.writeInfo(l.info)
	}

	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.lockPath, err)
	}
	if !ok {
		holder, _ := l.readInfo()
		return &LockError{Directory: l.dir, Holder: holder, Reason: "directory is locked by another process"}
	}

	hostname, _ := os.Hostname()
	info := &LockInfo{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartTime: time.Now(),
		Directory: l.dir,
		Action:    action,
	}
	if err := l.writeInfo(info); err != nil {
		l.fl.Unlock()
		return fmt.Errorf("failed to write lock info: %w", err)
	}

	l.info = info
	return nil
}

// Release releases the lock. Releasing an unheld lock is a no-op.
func (l *DirLock) Release() error {
	if l.info == nil {
		return nil
	}

	if err := os.Remove(l.infoPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock info: %w", err)
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}

	l.info = nil
	return nil
}

// IsLocked reports whether any process, including this one, holds the lock
func (l *DirLock) IsLocked() bool {
	if l.info != nil {
		return true
	}

	probe := flock.New(l.lockPath)
	ok, err := probe.TryLock()
	if err != nil {
		return false
	}
	if ok {
		probe.Unlock()
		return false
	}
	return true
}

// Holder returns information about the current lock holder
func (l *DirLock) Holder() (*LockInfo, error) {
	if !l.IsLocked() {
		return nil, fmt.Errorf("directory %s is not locked", l.dir)
	}
	return l.readInfo()
}

func (l *DirLock) infoPath() string {
	return l.lockPath + ".json"
}

func (l *DirLock) readInfo() (*LockInfo, error) {
	data, err := os.ReadFile(l.infoPath())
	if err != nil {
		return nil, err
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("invalid lock info format: %w", err)
	}
	return &info, nil
}

func (l *DirLock) writeInfo(info *LockInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.infoPath(), data, 0644)
}

// LockError reports a directory locked by someone else. It matches
// domain.ErrDirectoryLocked.
type LockError struct {
	Directory string
	Holder    *LockInfo
	Reason    string
}

func (e *LockError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("cannot lock %s: %s (held by PID %d on %s since %s, action: %s)",
			e.Directory,
			e.Reason,
			e.Holder.PID,
			e.Holder.Hostname,
			e.Holder.StartTime.Format(time.RFC3339),
			e.Holder.Action,
		)
	}
	return fmt.Sprintf("cannot lock %s: %s", e.Directory, e.Reason)
}

func (e *LockError) Unwrap() error {
	return domain.ErrDirectoryLocked
}

// IsLockError checks if an error is a LockError
func IsLockError(err error) bool {
	var le *LockError
	return errors.As(err, &le)
}
