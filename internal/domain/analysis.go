// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the pulseviz rendering engine.
package domain

import (
	"time"
)

// BandCount is the number of pseudo-spectrum bands rendered by the engine.
// It matches the twelve pitch classes carried by every analysis segment.
const BandCount = 12

// Segment is a short time-slice of precomputed analysis carrying a
// twelve-dimensional pitch-class energy vector.
//
// Segments are ordered by Start and never overlap, but gaps between
// consecutive segments are allowed.
type Segment struct {
	// Start is the segment start position in seconds from track begin
	Start float64

	// Duration is the segment length in seconds
	Duration float64

	// Pitches holds one energy value in [0,1] per pitch class.
	// A well-formed vector has exactly BandCount entries.
	Pitches []float64
}

// Contains reports whether the given position falls inside [Start, Start+Duration).
func (s Segment) Contains(position float64) bool {
	return position >= s.Start && position < s.Start+s.Duration
}

// Beat is a detected rhythmic onset.
// Beats are strictly increasing by Start within a track.
type Beat struct {
	// Start is the beat timestamp in seconds from track begin
	Start float64

	// Confidence is the detector confidence in [0,1]
	Confidence float64
}

// Section is a longer time-slice with aggregate loudness used for macro
// energy shaping. Sections are ordered by Start but need not be contiguous.
type Section struct {
	// Start is the section start position in seconds from track begin
	Start float64

	// Duration is the section length in seconds
	Duration float64

	// LoudnessDb is the average section loudness in decibels (typically negative)
	LoudnessDb float64
}

// Contains reports whether the given position falls inside [Start, Start+Duration).
func (s Section) Contains(position float64) bool {
	return position >= s.Start && position < s.Start+s.Duration
}

// TrackAnalysis is the immutable per-track analysis bundle.
//
// A TrackAnalysis is replaced wholesale on track change and never mutated
// in place. Exactly one analysis is active at a time.
type TrackAnalysis struct {
	// TrackID identifies the track this analysis belongs to
	TrackID string

	// DurationSeconds is the total track length in seconds
	DurationSeconds float64

	// Segments is the ordered list of pitch segments
	Segments []Segment

	// Beats is the ordered list of detected beats
	Beats []Beat

	// Sections is the ordered list of loudness sections
	Sections []Section
}

// HasSegments reports whether the analysis carries usable pitch data.
func (a *TrackAnalysis) HasSegments() bool {
	return a != nil && len(a.Segments) > 0
}

// CalibrationRange is the per-track min/max loudness used to normalize
// section energy into [0,1]. It is derived once per track load.
type CalibrationRange struct {
	MinDb float64
	MaxDb float64
}

// DefaultCalibrationRange is the range used when a track has no sections.
func DefaultCalibrationRange() CalibrationRange {
	return CalibrationRange{MinDb: -60, MaxDb: 0}
}

// Span returns the loudness range width in decibels.
func (r CalibrationRange) Span() float64 {
	return r.MaxDb - r.MinDb
}

// Calibrate derives a CalibrationRange from the loudness of all sections.
// An empty section list yields DefaultCalibrationRange.
func Calibrate(sections []Section) CalibrationRange {
	if len(sections) == 0 {
		return DefaultCalibrationRange()
	}

	r := CalibrationRange{MinDb: sections[0].LoudnessDb, MaxDb: sections[0].LoudnessDb}
	for _, s := range sections[1:] {
		if s.LoudnessDb < r.MinDb {
			r.MinDb = s.LoudnessDb
		}
		if s.LoudnessDb > r.MaxDb {
			r.MaxDb = s.LoudnessDb
		}
	}
	return r
}

// PlaybackSample is one observation of the remote player state.
// Samples arrive on an external cadence (typically every 100ms to 1s) and
// anchor the position extrapolation between polls.
type PlaybackSample struct {
	// TrackID identifies the currently loaded track ("" when nothing is loaded)
	TrackID string

	// Position is the reported playback position in seconds
	Position float64

	// Duration is the reported track length in seconds (0 if unknown)
	Duration float64

	// IsPlaying reports whether the player was actively playing at SampledAt
	IsPlaying bool

	// SampledAt is the local wall-clock time the sample was taken
	SampledAt time.Time
}
