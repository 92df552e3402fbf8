package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

// AnalysisStore holds the immutable analysis bundle for exactly one track
// at a time, together with the loudness calibration derived once per load.
//
// The store is invalidated wholesale on track change: the analysis is
// cleared immediately and a fresh fetch is started in the background. Each
// swap bumps a generation counter; a fetch resolving after the track has
// changed again carries a stale generation and is silently discarded, so a
// slow provider can never resurrect a previous track's data.
type AnalysisStore struct {
	logger *slog.Logger
	bus    ports.EventBus

	mu          sync.Mutex
	trackID     string
	analysis    *domain.TrackAnalysis
	calibration domain.CalibrationRange
	generation  uint64

	fetches sync.WaitGroup
}

// NewAnalysisStore creates an empty store.
func NewAnalysisStore(logger *slog.Logger, bus ports.EventBus) *AnalysisStore {
	return &AnalysisStore{
		logger:      logger,
		bus:         bus,
		calibration: domain.DefaultCalibrationRange(),
	}
}

// LoadIfTrackChanged compares the polled track identity against the stored
// one. On a change it clears the analysis immediately and starts an
// asynchronous fetch through the provider; the result is committed by
// generation so a superseded fetch is discarded, not applied.
//
// Returns true when the track identity changed. Callers use the signal to
// reset their per-track cursors in the same critical section that observes
// the swap.
func (s *AnalysisStore) LoadIfTrackChanged(trackID string, provider ports.AnalysisProvider) bool {
	s.mu.Lock()
	if trackID == s.trackID {
		s.mu.Unlock()
		return false
	}

	previousID := s.trackID
	s.trackID = trackID
	s.analysis = nil
	s.calibration = domain.DefaultCalibrationRange()
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	s.logger.Debug("analysis invalidated",
		slog.String("previous_id", previousID),
		slog.String("track_id", trackID))

	if trackID == "" || provider == nil {
		return true
	}

	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()
		analysis, err := provider.Analysis(trackID)
		s.commit(generation, trackID, analysis, err)
	}()

	return true
}

// commit applies a fetch result if its generation is still current.
func (s *AnalysisStore) commit(generation uint64, trackID string, analysis *domain.TrackAnalysis, err error) {
	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded analysis fetch",
			slog.String("track_id", trackID))
		return
	}

	if err != nil || analysis == nil {
		s.analysis = nil
		s.calibration = domain.DefaultCalibrationRange()
		s.mu.Unlock()

		s.logger.Warn("analysis fetch failed",
			slog.String("track_id", trackID),
			slog.Any("error", err))
		s.bus.Publish(domain.NewAnalysisFailedEvent(trackID, err))
		return
	}

	calibration := domain.Calibrate(analysis.Sections)
	s.analysis = analysis
	s.calibration = calibration
	s.mu.Unlock()

	s.logger.Info("analysis loaded",
		slog.String("track_id", trackID),
		slog.Int("segments", len(analysis.Segments)),
		slog.Int("beats", len(analysis.Beats)),
		slog.Int("sections", len(analysis.Sections)))
	s.bus.Publish(domain.NewAnalysisLoadedEvent(analysis, calibration))
}

// Snapshot returns the current analysis and calibration.
// The analysis pointer may be nil while no data is available; when non-nil
// it is immutable and safe to read without further locking.
func (s *AnalysisStore) Snapshot() (*domain.TrackAnalysis, domain.CalibrationRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis, s.calibration
}

// TrackID returns the identity of the track the store currently represents.
func (s *AnalysisStore) TrackID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackID
}

// HasData reports whether a usable analysis is committed.
func (s *AnalysisStore) HasData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis.HasSegments()
}

// Reset clears the store to the no-track state. Any in-flight fetch is
// invalidated by the generation bump and will be discarded on arrival.
func (s *AnalysisStore) Reset() {
	s.mu.Lock()
	s.trackID = ""
	s.analysis = nil
	s.calibration = domain.DefaultCalibrationRange()
	s.generation++
	s.mu.Unlock()
}

// Wait blocks until all in-flight fetches have finished.
// Used on shutdown so no fetch goroutine outlives the engine.
func (s *AnalysisStore) Wait() {
	s.fetches.Wait()
}
