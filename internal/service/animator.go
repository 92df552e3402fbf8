package service

import (
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
)

// BarAnimator owns the per-band bar heights and advances them one frame at
// a time.
//
// On a beat hit every bar snaps straight to its target height for an
// instantaneous visual accent; between beats the heights decay
// geometrically toward the floor, which is what gives the display its
// pulse-and-fade character.
//
// The heights slice is created once and mutated in place across frames; it
// is zeroed only on explicit reset, never on track change, so bars collapse
// smoothly instead of blinking when a new track starts.
type BarAnimator struct {
	heights []float64
	frame   []float64 // reusable copy handed to callers
}

// NewBarAnimator creates an animator with all bars at zero height.
func NewBarAnimator() *BarAnimator {
	return &BarAnimator{
		heights: make([]float64, domain.BandCount),
		frame:   make([]float64, domain.BandCount),
	}
}

// Step advances all bars one frame and returns the resulting heights in
// pixels. The returned slice is reused between calls; callers must not
// retain it across frames.
//
// Per band the target is pitch * surfaceHeight * MaxHeightFraction * energy.
// A beat hit snaps the bar to its target exactly; otherwise the height
// decays by DecayRate. Either way the height is floored at MinBarHeight.
func (a *BarAnimator) Step(pitches []float64, energy float64, beatHit bool, surfaceHeight float64, cfg domain.VisualizerConfig) []float64 {
	for i := range a.heights {
		var pitch float64
		if i < len(pitches) {
			pitch = pitches[i]
		}

		if beatHit {
			a.heights[i] = pitch * surfaceHeight * cfg.MaxHeightFraction * energy
		} else {
			a.heights[i] *= cfg.DecayRate
		}

		if a.heights[i] < cfg.MinBarHeight {
			a.heights[i] = cfg.MinBarHeight
		}
	}

	copy(a.frame, a.heights)
	return a.frame
}

// Heights returns a copy of the current bar heights.
func (a *BarAnimator) Heights() []float64 {
	out := make([]float64, len(a.heights))
	copy(out, a.heights)
	return out
}

// Reset zeroes all bars. Called on explicit engine reset only.
func (a *BarAnimator) Reset() {
	for i := range a.heights {
		a.heights[i] = 0
	}
}
