package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/analysis/memory"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/logger"
	"github.com/tejashwikalptaru/pulseviz/internal/testutil"
)

func newTestStore() (*AnalysisStore, *memory.Provider, *eventbus.SyncEventBus) {
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	provider := memory.NewProvider()
	return NewAnalysisStore(log, bus), provider, bus
}

func registeredAnalysis(provider *memory.Provider, trackID string) *domain.TrackAnalysis {
	analysis := memory.DemoAnalysis(trackID, 120)
	provider.Register(analysis)
	return analysis
}

func TestAnalysisStore_LoadsOnTrackChange(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, provider, bus := newTestStore()
	want := registeredAnalysis(provider, "t1")

	var loaded domain.AnalysisLoadedEvent
	bus.Subscribe(domain.EventAnalysisLoaded, func(e domain.Event) {
		loaded = e.(domain.AnalysisLoadedEvent)
	})

	changed := store.LoadIfTrackChanged("t1", provider)
	require.True(t, changed)
	store.Wait()

	analysis, calibration := store.Snapshot()
	require.NotNil(t, analysis)
	assert.Equal(t, want, analysis)
	assert.Equal(t, domain.Calibrate(want.Sections), calibration)
	assert.True(t, store.HasData())

	assert.Equal(t, "t1", loaded.TrackID)
	assert.Equal(t, len(want.Beats), loaded.BeatCount)
}

func TestAnalysisStore_UnchangedTrackIsNoOp(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, provider, _ := newTestStore()
	registeredAnalysis(provider, "t1")

	require.True(t, store.LoadIfTrackChanged("t1", provider))
	store.Wait()
	before, _ := store.Snapshot()

	assert.False(t, store.LoadIfTrackChanged("t1", provider))
	after, _ := store.Snapshot()
	assert.Same(t, before, after)
}

func TestAnalysisStore_FetchFailureClearsToNoData(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, provider, bus := newTestStore()
	provider.Fail("t1", errors.New("fetch exploded"))

	var failed domain.AnalysisFailedEvent
	bus.Subscribe(domain.EventAnalysisFailed, func(e domain.Event) {
		failed = e.(domain.AnalysisFailedEvent)
	})

	store.LoadIfTrackChanged("t1", provider)
	store.Wait()

	analysis, calibration := store.Snapshot()
	assert.Nil(t, analysis)
	assert.Equal(t, domain.DefaultCalibrationRange(), calibration)
	assert.False(t, store.HasData())
	assert.Equal(t, "t1", failed.TrackID)
	assert.Error(t, failed.Err)
}

func TestAnalysisStore_StaleFetchDiscarded(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, provider, _ := newTestStore()
	staleAnalysis := registeredAnalysis(provider, "old")
	freshAnalysis := registeredAnalysis(provider, "new")

	// Hold the fetch for "old" until after the track has changed again.
	release := make(chan struct{})
	provider.SetFetchHook(func(trackID string) {
		if trackID == "old" {
			<-release
		}
	})

	store.LoadIfTrackChanged("old", provider)
	store.LoadIfTrackChanged("new", provider)
	close(release)
	store.Wait()

	analysis, _ := store.Snapshot()
	require.NotNil(t, analysis)
	assert.Equal(t, freshAnalysis, analysis)
	assert.NotEqual(t, staleAnalysis.TrackID, analysis.TrackID)
	assert.Equal(t, "new", store.TrackID())
}

func TestAnalysisStore_CalibrationFromSections(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, provider, _ := newTestStore()
	provider.Register(&domain.TrackAnalysis{
		TrackID: "t1",
		Segments: []domain.Segment{
			{Start: 0, Duration: 1, Pitches: make([]float64, domain.BandCount)},
		},
		Sections: []domain.Section{
			{Start: 0, Duration: 10, LoudnessDb: -40},
			{Start: 10, Duration: 10, LoudnessDb: -25},
			{Start: 20, Duration: 10, LoudnessDb: -10},
		},
	})

	store.LoadIfTrackChanged("t1", provider)
	store.Wait()

	_, calibration := store.Snapshot()
	assert.Equal(t, domain.CalibrationRange{MinDb: -40, MaxDb: -10}, calibration)
}

func TestAnalysisStore_NoSectionsUsesDefaultCalibration(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, provider, _ := newTestStore()
	provider.Register(&domain.TrackAnalysis{
		TrackID: "t1",
		Segments: []domain.Segment{
			{Start: 0, Duration: 1, Pitches: make([]float64, domain.BandCount)},
		},
	})

	store.LoadIfTrackChanged("t1", provider)
	store.Wait()

	_, calibration := store.Snapshot()
	assert.Equal(t, domain.DefaultCalibrationRange(), calibration)
}

func TestAnalysisStore_Reset(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store, provider, _ := newTestStore()
	registeredAnalysis(provider, "t1")

	store.LoadIfTrackChanged("t1", provider)
	store.Wait()
	require.True(t, store.HasData())

	store.Reset()
	assert.False(t, store.HasData())
	assert.Equal(t, "", store.TrackID())

	// The same track counts as changed again after a reset.
	assert.True(t, store.LoadIfTrackChanged("t1", provider))
	store.Wait()
	assert.True(t, store.HasData())
}
