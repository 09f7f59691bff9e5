package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sosanhsach/pricesync/internal/logger"
)

// Manager provides thread-safe, read-only configuration management.
// The settings file is never modified by the worker; all updates come
// from operators editing it in place. Invalid updates are rejected and
// the last known good configuration stays active.
type Manager interface {
	// GetConfig safely retrieves the current configuration.
	GetConfig() *Config

	// ReloadConfig reads the latest configuration from disk and applies
	// it if valid. Returns error if the new config is invalid.
	ReloadConfig() error

	// WatchConfig observes the settings file for external changes and
	// reloads on update. Blocks until the context is cancelled.
	WatchConfig(ctx context.Context) error

	// Close releases the file watcher resources.
	Close() error
}

// Loader reads a configuration from a file path. It exists so tests can
// substitute the loading step.
type Loader func(path string) (*Config, error)

type manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	loader     Loader
	watcher    *fsnotify.Watcher
	watcherMu  sync.Mutex
}

// ManagerOption customizes Manager behavior.
type ManagerOption func(*manager)

// WithLoader sets a custom config loader.
func WithLoader(loader Loader) ManagerOption {
	return func(m *manager) {
		m.loader = loader
	}
}

// NewManager creates a Manager for the given settings file path and
// loads the initial configuration. Returns error if the initial load or
// validation fails.
func NewManager(configPath string, opts ...ManagerOption) (Manager, error) {
	m := &manager{
		configPath: configPath,
		loader:     Load,
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := m.ReloadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	return m, nil
}

// GetConfig safely retrieves the current configuration. Multiple
// goroutines can call this concurrently.
func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

// ReloadConfig reads the settings file and applies it if valid. If the
// new configuration is invalid, the previous configuration remains
// active.
func (m *manager) ReloadConfig() error {
	newConfig, err := m.loader(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := newConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.mu.Lock()
	m.config = newConfig
	m.mu.Unlock()

	logger.Infof("Configuration reloaded from %s", m.configPath)
	return nil
}

// WatchConfig observes the settings file for external changes. Blocks
// until the context is cancelled.
func (m *manager) WatchConfig(ctx context.Context) error {
	m.watcherMu.Lock()
	if m.watcher != nil {
		m.watcherMu.Unlock()
		return fmt.Errorf("config watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.watcherMu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	m.watcher = watcher
	m.watcherMu.Unlock()

	if err := watcher.Add(m.configPath); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", m.configPath, err)
	}

	logger.Infof("Started watching configuration file: %s", m.configPath)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping config file watcher due to context cancellation")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Infof("External config update detected, reloading")

				if err := m.ReloadConfig(); err != nil {
					logger.Errorf("Failed to reload config: %v", err)
					// Previous config remains active.
				}
			}

			// Editors often replace the file instead of writing in place.
			if event.Has(fsnotify.Remove) {
				logger.Debugf("Config file removed, re-watching")
				_ = watcher.Add(m.configPath)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logger.Errorf("File watcher error: %v", err)
		}
	}
}

// Close releases resources held by the manager.
func (m *manager) Close() error {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		m.watcher = nil
		logger.Info("Config watcher closed")
	}

	return nil
}
