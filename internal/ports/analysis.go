// Package ports define interfaces for dependency inversion.
// These interfaces allow the core engine to remain independent of external frameworks.
package ports

import (
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
)

// AnalysisProvider supplies the precomputed per-track analysis bundle.
// The engine never computes analysis from audio itself; it consumes what
// a provider returns.
//
// Implementations may be slow (network, file decode). The engine invokes
// providers off the render loop and discards results that arrive after the
// track has changed again, so implementations need no staleness handling
// of their own.
//
// Thread-safety: Implementations must be safe for concurrent calls.
type AnalysisProvider interface {
	// Analysis returns the analysis bundle for the given track.
	//
	// Returns domain.ErrAnalysisNotFound (possibly wrapped) when no
	// analysis exists for the track. Any error leaves the engine in the
	// "no data" state; this is a degradation, never a fatal condition.
	Analysis(trackID string) (*domain.TrackAnalysis, error)
}
