// Package runlock provides the host-wide lock that keeps two videomixer
// processes from encoding at the same time.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"videomixer/internal/config"
)

// New returns an unlocked file lock at path, creating its directory.
func New(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return flock.New(path), nil
}

// ForConfig returns the lock at cfg.LockPath().
func ForConfig(cfg *config.Config) (*flock.Flock, error) {
	return New(cfg.LockPath())
}

// WithLock runs fn only if the lock can be taken immediately. It reports
// false without calling fn when another process holds it.
func WithLock(lock *flock.Flock, fn func() error) (bool, error) {
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return false, nil
	}
	defer func() { _ = lock.Unlock() }()
	return true, fn()
}
