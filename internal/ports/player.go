// Package ports define the playback source interface for position polling.
package ports

import (
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
)

// PlaybackSource reports the remote player state.
//
// The poller queries a source on a fixed cadence and feeds each sample to
// the engine, which extrapolates position between polls. Sources set
// SampledAt to the local wall-clock time of the observation so that
// extrapolation is anchored correctly regardless of transport latency.
//
// Thread-safety: Implementations must be safe for concurrent calls.
type PlaybackSource interface {
	// Status returns the current playback sample.
	//
	// Returns domain.ErrPlayerUnavailable (possibly wrapped) when the
	// player cannot be reached. A failed poll is skipped, never fatal.
	Status() (domain.PlaybackSample, error)
}
