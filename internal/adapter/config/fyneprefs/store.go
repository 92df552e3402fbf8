// Package fyneprefs persists the visualizer configuration using Fyne
// preferences. This provides a thin wrapper around Fyne's preferences
// system with proper error handling.
package fyneprefs

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

const configKey = "preferences.visualizer_config"

// Store implements ports.ConfigStore backed by Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Store struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewStore creates a config store.
// The preferences parameter should be obtained from fyne.App.Preferences().
func NewStore(prefs fyne.Preferences) *Store {
	return &Store{
		prefs: prefs,
	}
}

// Save persists the configuration as JSON.
func (s *Store) Save(cfg domain.VisualizerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(cfg)
	if err != nil {
		return domain.NewProviderError("config-save", "", "failed to marshal config", err)
	}

	s.prefs.SetString(configKey, string(data))
	return nil
}

// Load retrieves the saved configuration. A missing or unreadable value
// reports ok=false so callers fall back to defaults.
func (s *Store) Load() (domain.VisualizerConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := s.prefs.String(configKey)
	if data == "" {
		return domain.VisualizerConfig{}, false, nil
	}

	var cfg domain.VisualizerConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return domain.VisualizerConfig{}, false,
			domain.NewProviderError("config-load", "", "failed to unmarshal config", err)
	}

	// A stale value saved by an older build may no longer validate; treat
	// it like an absent value rather than poisoning startup.
	if err := cfg.Validate(); err != nil {
		return domain.VisualizerConfig{}, false, nil
	}

	return cfg, true, nil
}

// Clear removes the saved configuration.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.RemoveValue(configKey)
	return nil
}

// Verify interface implementation
var _ ports.ConfigStore = (*Store)(nil)
