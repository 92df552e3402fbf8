// Package service provides the real-time rendering engine of pulseviz.
package service

import (
	"sync"
	"time"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
)

// PositionEstimator extrapolates the current playback position from the
// last known poll sample and elapsed wall-clock time.
//
// The player is polled far less often than the display refreshes, so the
// render loop asks the estimator for a position every frame while Sync is
// called only when a fresh sample arrives. The anchor tuple is replaced
// atomically; a frame never observes a new position with a stale timestamp.
type PositionEstimator struct {
	mu        sync.Mutex
	position  float64
	sampledAt time.Time
	playing   bool
	anchored  bool
}

// NewPositionEstimator creates an estimator with no anchor.
// Estimate returns 0 until the first Sync.
func NewPositionEstimator() *PositionEstimator {
	return &PositionEstimator{}
}

// Sync stores the latest poll anchor.
func (e *PositionEstimator) Sync(sample domain.PlaybackSample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.position = sample.Position
	e.sampledAt = sample.SampledAt
	e.playing = sample.IsPlaying
	e.anchored = true
}

// Estimate returns the extrapolated playback position at the given time.
//
// While paused the last known position is returned unchanged. While playing
// the position advances by the wall-clock time elapsed since the anchor,
// clamped to the track duration so extrapolation never overruns the track
// absent a fresh poll. A non-positive duration disables the clamp.
func (e *PositionEstimator) Estimate(now time.Time, duration float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.anchored {
		return 0
	}
	if !e.playing {
		return e.position
	}

	position := e.position + now.Sub(e.sampledAt).Seconds()
	if duration > 0 && position > duration {
		position = duration
	}
	return position
}

// Reset clears the anchor, returning the estimator to its initial state.
func (e *PositionEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.position = 0
	e.sampledAt = time.Time{}
	e.playing = false
	e.anchored = false
}
