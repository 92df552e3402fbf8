package service

import (
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
)

// SegmentLocator maps a playback position to the pitch vector of its
// containing segment.
//
// Playback advances monotonically almost all of the time, so the locator
// caches the index of the last located segment and resolves each lookup
// through an explicit three-branch decision:
//
//  1. cached:   the position is still inside the cached segment
//  2. forward:  the position is at or past the cached segment's start
//  3. backward: the position is before the cached segment's start (seek)
//
// This keeps monotonic lookups O(1) amortized while still resolving
// arbitrary seeks correctly.
type SegmentLocator struct {
	cursor int
}

// NewSegmentLocator creates a locator with the cursor at the first segment.
func NewSegmentLocator() *SegmentLocator {
	return &SegmentLocator{}
}

// Lookup returns the pitch vector of the segment containing the position,
// or a zero vector when no segment contains it. A segment carrying a
// malformed pitch vector (wrong length) also yields the zero vector for
// that single lookup. Lookup never fails.
func (l *SegmentLocator) Lookup(segments []domain.Segment, position float64) []float64 {
	if len(segments) == 0 {
		return zeroPitches()
	}
	if l.cursor < 0 || l.cursor >= len(segments) {
		l.cursor = 0
	}

	cached := segments[l.cursor]

	// Branch 1: cache hit.
	if cached.Contains(position) {
		return pitchesOf(cached)
	}

	// Branch 2: forward scan for monotonic playback.
	if position >= cached.Start {
		for i := l.cursor + 1; i < len(segments); i++ {
			if segments[i].Contains(position) {
				l.cursor = i
				return pitchesOf(segments[i])
			}
			if segments[i].Start > position {
				// The position sits in a gap between segments.
				return zeroPitches()
			}
		}
		return zeroPitches()
	}

	// Branch 3: backward scan after a seek. The first containing segment
	// walking down from the cache wins.
	for i := l.cursor - 1; i >= 0; i-- {
		if segments[i].Contains(position) {
			l.cursor = i
			return pitchesOf(segments[i])
		}
		if segments[i].Start+segments[i].Duration <= position {
			// Walked past the position without finding a container: gap.
			return zeroPitches()
		}
	}
	return zeroPitches()
}

// Cursor returns the cached segment index.
func (l *SegmentLocator) Cursor() int {
	return l.cursor
}

// Reset moves the cursor back to the first segment.
// Must be called on every analysis swap so no index leaks across tracks.
func (l *SegmentLocator) Reset() {
	l.cursor = 0
}

// pitchesOf validates a segment's pitch vector, substituting zeros for a
// malformed one.
func pitchesOf(segment domain.Segment) []float64 {
	if len(segment.Pitches) != domain.BandCount {
		return zeroPitches()
	}
	return segment.Pitches
}

// zeroPitches returns a fresh all-zero pitch vector.
func zeroPitches() []float64 {
	return make([]float64, domain.BandCount)
}
