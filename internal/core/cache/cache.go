// Package cache owns the temporary working area shared by consecutive entries.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"tuneharvest/internal/shared"
)

const (
	// MusicDir holds the in-progress audio file of the current entry
	MusicDir = "music"
	lockName = ".tuneharvest.lock"
)

// EntryPatterns are purged before and after every entry
var EntryPatterns = []string{"*.jpg", filepath.Join(MusicDir, "*")}

// Manager implements interfaces.CacheManager for one temp directory
type Manager struct {
	dir      string
	lock     *flock.Flock
	warnings *shared.WarningCollector
	logger   *log.Logger
}

// NewManager creates a manager for dir; nothing touches the disk until Prepare
func NewManager(dir string, warnings *shared.WarningCollector, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Manager{
		dir:      dir,
		lock:     flock.New(filepath.Join(dir, lockName)),
		warnings: warnings,
		logger:   logger,
	}
}

// Dir returns the working directory
func (m *Manager) Dir() string { return m.dir }

// MusicDir returns the directory downloads are written to
func (m *Manager) MusicDir() string { return filepath.Join(m.dir, MusicDir) }

// Prepare creates the working area
func (m *Manager) Prepare() error {
	if err := os.MkdirAll(m.MusicDir(), 0755); err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	return nil
}

// Acquire takes the process lock on the working area.
// It returns shared.ErrCacheLocked when another process holds it.
func (m *Manager) Acquire() error {
	if err := m.Prepare(); err != nil {
		return err
	}
	ok, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrCacheLocked, m.dir)
	}
	m.logger.Debug("acquired working directory lock", "path", m.lock.Path())
	return nil
}

// Release drops the process lock
func (m *Manager) Release() error {
	if err := m.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Clear removes every regular file matching pattern. Relative patterns are
// resolved against the working directory. Each removal is logged at debug level.
func (m *Manager) Clear(pattern string) error {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(m.dir, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("invalid cache pattern %q: %w", pattern, err)
	}

	var errs []error
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil || info.IsDir() || filepath.Base(path) == lockName {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.warnings.AddCacheCleanupWarning(path, err.Error())
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		m.logger.Debug("removed cached file", "path", path)
	}
	return errors.Join(errs...)
}

// ClearAll purges the leftover art and audio of the previous entry
func (m *Manager) ClearAll() error {
	var errs []error
	for _, pattern := range EntryPatterns {
		if err := m.Clear(pattern); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
