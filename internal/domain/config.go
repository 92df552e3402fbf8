// Package domain defines the runtime configuration of the rendering engine.
package domain

// ScalingLaw selects how section loudness is mapped to the [0,1] energy scale.
type ScalingLaw int

const (
	// LawLinear maps loudness linearly across the track's calibration range.
	LawLinear ScalingLaw = iota

	// LawLogarithmic converts loudness to amplitude via 10^(dB/20),
	// with the loudness clamped to [-60, 0] dB first.
	LawLogarithmic
)

// String returns a human-readable representation of the scaling law.
func (l ScalingLaw) String() string {
	switch l {
	case LawLinear:
		return "linear"
	case LawLogarithmic:
		return "logarithmic"
	default:
		return "unknown"
	}
}

// VisualizerConfig holds all engine tunables.
//
// A config value is injected at construction and hot-swapped through
// Engine.ApplyConfig; the render loop reads a consistent snapshot per frame,
// so changes take effect without a restart.
type VisualizerConfig struct {
	// BarGap is the minimum gap between bars in pixels
	BarGap int

	// MaxHeightFraction caps bar height as a fraction of the surface height
	MaxHeightFraction float64

	// MinBarHeight is the floor applied to every bar height in pixels
	MinBarHeight float64

	// DecayRate is the per-frame geometric decay applied between beats
	DecayRate float64

	// BeatConfidenceThreshold filters out low-confidence beat crossings
	BeatConfidenceThreshold float64

	// Law selects the section energy scaling law
	Law ScalingLaw

	// FrameRate is the target render loop rate in frames per second
	FrameRate int
}

// DefaultVisualizerConfig returns the default engine configuration.
func DefaultVisualizerConfig() VisualizerConfig {
	return VisualizerConfig{
		BarGap:                  2,
		MaxHeightFraction:       0.9,
		MinBarHeight:            2,
		DecayRate:               0.90,
		BeatConfidenceThreshold: 0.1,
		Law:                     LawLinear,
		FrameRate:               60,
	}
}

// Validate checks the configuration for out-of-range values.
func (c VisualizerConfig) Validate() error {
	if c.BarGap < 0 {
		return NewValidationError("BarGap", c.BarGap, "must not be negative")
	}
	if c.MaxHeightFraction <= 0 || c.MaxHeightFraction > 1 {
		return NewValidationError("MaxHeightFraction", c.MaxHeightFraction, "must be in (0,1]")
	}
	if c.MinBarHeight < 0 {
		return NewValidationError("MinBarHeight", c.MinBarHeight, "must not be negative")
	}
	if c.DecayRate <= 0 || c.DecayRate >= 1 {
		return NewValidationError("DecayRate", c.DecayRate, "must be in (0,1)")
	}
	if c.BeatConfidenceThreshold < 0 || c.BeatConfidenceThreshold > 1 {
		return NewValidationError("BeatConfidenceThreshold", c.BeatConfidenceThreshold, "must be in [0,1]")
	}
	if c.Law != LawLinear && c.Law != LawLogarithmic {
		return NewValidationError("Law", c.Law, "unknown scaling law")
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		return NewValidationError("FrameRate", c.FrameRate, "must be in [1,240]")
	}
	return nil
}

// ConfigPatch carries a partial configuration update.
// Nil fields leave the corresponding tunable unchanged.
type ConfigPatch struct {
	BarGap                  *int
	MaxHeightFraction       *float64
	MinBarHeight            *float64
	DecayRate               *float64
	BeatConfidenceThreshold *float64
	Law                     *ScalingLaw
	FrameRate               *int
}

// Apply returns a copy of the configuration with all non-nil patch fields set.
func (c VisualizerConfig) Apply(p ConfigPatch) VisualizerConfig {
	if p.BarGap != nil {
		c.BarGap = *p.BarGap
	}
	if p.MaxHeightFraction != nil {
		c.MaxHeightFraction = *p.MaxHeightFraction
	}
	if p.MinBarHeight != nil {
		c.MinBarHeight = *p.MinBarHeight
	}
	if p.DecayRate != nil {
		c.DecayRate = *p.DecayRate
	}
	if p.BeatConfidenceThreshold != nil {
		c.BeatConfidenceThreshold = *p.BeatConfidenceThreshold
	}
	if p.Law != nil {
		c.Law = *p.Law
	}
	if p.FrameRate != nil {
		c.FrameRate = *p.FrameRate
	}
	return c
}
