// Package ports defines the configuration persistence interface.
package ports

import "github.com/tejashwikalptaru/pulseviz/internal/domain"

// ConfigStore persists the visualizer configuration across sessions.
type ConfigStore interface {
	// Save persists the configuration.
	Save(cfg domain.VisualizerConfig) error

	// Load retrieves the saved configuration. The boolean is false when
	// nothing has been saved yet.
	Load() (domain.VisualizerConfig, bool, error)

	// Clear removes the saved configuration.
	Clear() error
}
