package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/triagekit/triage/pkg/logger"
	"github.com/triagekit/triage/pkg/types"
)

// ReloadCallback is called with the reloaded configuration, or with the
// error that prevented loading it.
type ReloadCallback func(*types.TriageConfig, error)

// ReloadEventType represents the type of reload event
type ReloadEventType string

const (
	ReloadEventTypeModified ReloadEventType = "modified"
	ReloadEventTypeCreated  ReloadEventType = "created"
	ReloadEventTypeRemoved  ReloadEventType = "removed"
	ReloadEventTypeError    ReloadEventType = "error"
)

// ReloadManager watches a configuration file and re-applies it on change
type ReloadManager struct {
	configPath     string
	logger         logger.Logger
	manager        *Manager
	watcher        *fsnotify.Watcher
	callbacks      []ReloadCallback
	lastModTime    time.Time
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	cancel         context.CancelFunc
	done           chan struct{}
	mu             sync.RWMutex
}

// NewReloadManager creates a new configuration reload manager
func NewReloadManager(configPath string, log logger.Logger) *ReloadManager {
	return &ReloadManager{
		configPath:     configPath,
		logger:         log.WithComponent("config"),
		manager:        NewManager(),
		debouncePeriod: 500 * time.Millisecond,
	}
}

// AddCallback adds a reload callback
func (rm *ReloadManager) AddCallback(callback ReloadCallback) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.callbacks = append(rm.callbacks, callback)
}

// SetDebouncePeriod sets the debounce period for file change events
func (rm *ReloadManager) SetDebouncePeriod(period time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.debouncePeriod = period
}

// StartWatching begins watching the configuration file for changes
func (rm *ReloadManager) StartWatching() error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.watcher != nil {
		return fmt.Errorf("already watching configuration file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(rm.configPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	if stat, err := os.Stat(rm.configPath); err == nil {
		rm.lastModTime = stat.ModTime()
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.watcher = watcher
	rm.cancel = cancel
	rm.done = make(chan struct{})

	go rm.watchLoop(ctx, watcher, rm.done)

	rm.logger.Debug("Started watching configuration file",
		logger.WithField("path", rm.configPath))
	return nil
}

// StopWatching stops watching the configuration file
func (rm *ReloadManager) StopWatching() error {
	rm.mu.Lock()
	if rm.watcher == nil {
		rm.mu.Unlock()
		return nil
	}

	rm.cancel()
	if rm.debounceTimer != nil {
		rm.debounceTimer.Stop()
		rm.debounceTimer = nil
	}
	err := rm.watcher.Close()
	done := rm.done
	rm.watcher = nil
	rm.mu.Unlock()

	<-done
	rm.logger.Debug("Stopped watching configuration file")
	if err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	return nil
}

// Run watches until ctx is cancelled
func (rm *ReloadManager) Run(ctx context.Context) error {
	if err := rm.StartWatching(); err != nil {
		return err
	}
	<-ctx.Done()
	return rm.StopWatching()
}

// IsWatching returns whether the manager is currently watching
func (rm *ReloadManager) IsWatching() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.watcher != nil
}

// TriggerReload reloads the file now, regardless of its modification time
func (rm *ReloadManager) TriggerReload() {
	rm.logger.Debug("Manually triggering configuration reload")
	rm.reload(ReloadEventTypeModified, true)
}

func (rm *ReloadManager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			rm.logger.Error("Configuration watcher panic recovered",
				logger.WithField("panic", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !rm.isConfigFileEvent(event.Name) {
				continue
			}

			rm.logger.Debug("Configuration file event received",
				logger.WithField("event", event.String()))
			rm.debounceReload(mapFsnotifyEvent(event.Op))

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			rm.logger.Error("Configuration file watcher error", logger.WithError(err))
			rm.notifyCallbacks(nil, err)
		}
	}
}

func (rm *ReloadManager) isConfigFileEvent(eventPath string) bool {
	configFileName := filepath.Base(rm.configPath)
	eventFileName := filepath.Base(eventPath)

	if eventFileName == configFileName {
		return true
	}
	// Editor swap and temp files.
	return strings.HasPrefix(eventFileName, configFileName) ||
		strings.HasSuffix(eventFileName, ".tmp") && strings.Contains(eventFileName, configFileName)
}

func mapFsnotifyEvent(op fsnotify.Op) ReloadEventType {
	switch {
	case op&fsnotify.Write == fsnotify.Write:
		return ReloadEventTypeModified
	case op&fsnotify.Create == fsnotify.Create:
		return ReloadEventTypeCreated
	case op&fsnotify.Remove == fsnotify.Remove:
		return ReloadEventTypeRemoved
	default:
		return ReloadEventTypeModified
	}
}

func (rm *ReloadManager) debounceReload(eventType ReloadEventType) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.debounceTimer != nil {
		rm.debounceTimer.Stop()
	}
	rm.debounceTimer = time.AfterFunc(rm.debouncePeriod, func() {
		rm.reload(eventType, false)
	})
}

func (rm *ReloadManager) reload(eventType ReloadEventType, force bool) {
	if eventType == ReloadEventTypeRemoved {
		rm.notifyCallbacks(nil, fmt.Errorf("configuration file was removed: %s", rm.configPath))
		return
	}

	stat, err := os.Stat(rm.configPath)
	if err != nil {
		rm.logger.Error("Failed to stat configuration file", logger.WithError(err))
		rm.notifyCallbacks(nil, err)
		return
	}

	rm.mu.Lock()
	if !force && !stat.ModTime().After(rm.lastModTime) {
		rm.mu.Unlock()
		rm.logger.Debug("Configuration file not modified, skipping reload")
		return
	}
	rm.lastModTime = stat.ModTime()
	rm.mu.Unlock()

	cfg, err := rm.manager.LoadConfig(rm.configPath)
	if err != nil {
		rm.logger.Error("Failed to reload configuration", logger.WithError(err))
		rm.notifyCallbacks(nil, err)
		return
	}

	rm.logger.Info("Configuration reloaded",
		logger.WithField("eventType", eventType))
	rm.notifyCallbacks(cfg, nil)
}

func (rm *ReloadManager) notifyCallbacks(cfg *types.TriageConfig, err error) {
	rm.mu.RLock()
	callbacks := make([]ReloadCallback, len(rm.callbacks))
	copy(callbacks, rm.callbacks)
	rm.mu.RUnlock()

	for _, callback := range callbacks {
		func(cb ReloadCallback) {
			defer func() {
				if r := recover(); r != nil {
					rm.logger.Error("Reload callback panic recovered",
						logger.WithField("panic", r))
				}
			}()
			cb(cfg, err)
		}(callback)
	}
}
