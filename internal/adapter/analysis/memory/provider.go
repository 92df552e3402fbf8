// Package memory provides an in-memory analysis provider.
// It backs tests and the demo player; nothing is persisted.
package memory

import (
	"math"
	"sync"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

// Provider serves registered analysis bundles keyed by track ID.
//
// Thread-safety: all methods may be called concurrently.
type Provider struct {
	mu       sync.Mutex
	analyses map[string]*domain.TrackAnalysis
	errs     map[string]error
	hook     func(trackID string)
}

// NewProvider creates an empty provider.
func NewProvider() *Provider {
	return &Provider{
		analyses: make(map[string]*domain.TrackAnalysis),
		errs:     make(map[string]error),
	}
}

// Register stores an analysis bundle under its track ID, replacing any
// previous registration.
func (p *Provider) Register(analysis *domain.TrackAnalysis) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.analyses[analysis.TrackID] = analysis
	delete(p.errs, analysis.TrackID)
}

// Fail makes future fetches for the given track return the given error.
func (p *Provider) Fail(trackID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[trackID] = err
	delete(p.analyses, trackID)
}

// SetFetchHook installs a function invoked at the start of every fetch.
// Tests use this to block a fetch and provoke the stale-result race.
func (p *Provider) SetFetchHook(hook func(trackID string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hook = hook
}

// Analysis returns the registered bundle for the track.
func (p *Provider) Analysis(trackID string) (*domain.TrackAnalysis, error) {
	p.mu.Lock()
	hook := p.hook
	p.mu.Unlock()

	if hook != nil {
		hook(trackID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.errs[trackID]; ok {
		return nil, err
	}
	analysis, ok := p.analyses[trackID]
	if !ok {
		return nil, domain.NewProviderError("analysis", trackID, "no analysis registered", domain.ErrAnalysisNotFound)
	}
	return analysis, nil
}

// DemoAnalysis builds a synthetic analysis bundle: beats on a fixed grid
// with alternating confidence, a pitch peak rotating through the twelve
// bands, and sections sweeping from quiet to loud. The demo player uses it
// so the visualizer has something to chew on without a real analysis
// service.
func DemoAnalysis(trackID string, duration float64) *domain.TrackAnalysis {
	const (
		beatInterval    = 0.5
		segmentDuration = 0.25
		sectionDuration = 15.0
	)

	analysis := &domain.TrackAnalysis{
		TrackID:         trackID,
		DurationSeconds: duration,
	}

	for start := 0.0; start < duration; start += beatInterval {
		confidence := 0.9
		if int(start/beatInterval)%4 != 0 {
			confidence = 0.4
		}
		analysis.Beats = append(analysis.Beats, domain.Beat{Start: start, Confidence: confidence})
	}

	for start := 0.0; start < duration; start += segmentDuration {
		pitches := make([]float64, domain.BandCount)
		peak := int(start/segmentDuration) % domain.BandCount
		for i := range pitches {
			distance := float64((i - peak + domain.BandCount) % domain.BandCount)
			pitches[i] = math.Max(0.15, 1.0-distance*0.2)
		}
		analysis.Segments = append(analysis.Segments, domain.Segment{
			Start:    start,
			Duration: segmentDuration,
			Pitches:  pitches,
		})
	}

	for start := 0.0; start < duration; start += sectionDuration {
		progress := start / duration
		analysis.Sections = append(analysis.Sections, domain.Section{
			Start:      start,
			Duration:   sectionDuration,
			LoudnessDb: -30 + 25*progress,
		})
	}

	return analysis
}

// Verify that Provider implements the AnalysisProvider interface
var _ ports.AnalysisProvider = (*Provider)(nil)
