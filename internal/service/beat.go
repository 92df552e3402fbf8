package service

import (
	"sort"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
)

// BeatCrossing is the result of a single beat check.
type BeatCrossing struct {
	// Hit is true for exactly one frame when playback crosses a beat whose
	// confidence clears the threshold. It is never sticky.
	Hit bool

	// Confidence is the crossed beat's confidence, 0 when no crossing occurred.
	Confidence float64
}

// BeatDetector detects beat crossings via sorted search over the beat list.
//
// The cursor remembers the index of the last beat at or before the previous
// position; any change of that index is a new crossing. Crossings below the
// confidence threshold still advance the cursor but report no hit, so a
// weak beat never fires twice.
type BeatDetector struct {
	cursor int
}

// NewBeatDetector creates a detector with no beat crossed yet.
func NewBeatDetector() *BeatDetector {
	return &BeatDetector{cursor: -1}
}

// Check locates the greatest beat with start <= position and reports
// whether the cursor moved. With no beats the result is always empty.
func (d *BeatDetector) Check(beats []domain.Beat, position, threshold float64) BeatCrossing {
	if len(beats) == 0 {
		return BeatCrossing{}
	}

	// Beats are sorted ascending by start; find the last index <= position.
	idx := sort.Search(len(beats), func(i int) bool {
		return beats[i].Start > position
	}) - 1

	if idx == d.cursor {
		return BeatCrossing{}
	}
	d.cursor = idx

	if idx < 0 {
		// Seek to before the first beat; nothing crossed.
		return BeatCrossing{}
	}

	confidence := beats[idx].Confidence
	return BeatCrossing{
		Hit:        confidence >= threshold,
		Confidence: confidence,
	}
}

// Cursor returns the index of the last crossed beat (-1 initially).
func (d *BeatDetector) Cursor() int {
	return d.cursor
}

// Reset clears the cursor.
// Must be called on every analysis swap so no index leaks across tracks.
func (d *BeatDetector) Reset() {
	d.cursor = -1
}
