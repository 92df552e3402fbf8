package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/analysis/memory"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/logger"
	"github.com/tejashwikalptaru/pulseviz/internal/testutil"
)

// fakeSurface records frames pushed by the engine.
type fakeSurface struct {
	mu      sync.Mutex
	ready   bool
	height  float64
	frames  [][]float64
	cleared bool
}

func (s *fakeSurface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *fakeSurface) Height() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

func (s *fakeSurface) SetFrame(heights []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := make([]float64, len(heights))
	copy(frame, heights)
	s.frames = append(s.frames, frame)
}

func (s *fakeSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = true
	s.frames = nil
}

func (s *fakeSurface) lastFrame() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *fakeSurface) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// newTestEngine builds a disabled engine so tests can step frames by hand
// without the scheduler racing them.
func newTestEngine(t *testing.T) (*Engine, *memory.Provider, *fakeSurface, *eventbus.SyncEventBus) {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	provider := memory.NewProvider()
	surface := &fakeSurface{ready: true, height: 200}

	cfg := domain.DefaultVisualizerConfig()
	cfg.MaxHeightFraction = 0.5
	cfg.MinBarHeight = 2

	engine, err := NewEngine(log, bus, provider, surface, cfg)
	require.NoError(t, err)
	engine.SetEnabled(false)

	return engine, provider, surface, bus
}

// loadTrack feeds a sample for the track and waits for its analysis commit.
func loadTrack(t *testing.T, engine *Engine, bus *eventbus.SyncEventBus, sample domain.PlaybackSample) {
	t.Helper()

	loaded := make(chan struct{}, 1)
	id := bus.Subscribe(domain.EventAnalysisLoaded, func(domain.Event) {
		select {
		case loaded <- struct{}{}:
		default:
		}
	})
	defer bus.Unsubscribe(id)

	engine.Update(sample)

	select {
	case <-loaded:
	case <-time.After(time.Second):
		t.Fatal("analysis not loaded in time")
	}
}

// flatAnalysis builds a minimal analysis with one segment covering the
// whole track, one confident beat and no sections.
func flatAnalysis(trackID string, pitches []float64, beats []domain.Beat) *domain.TrackAnalysis {
	return &domain.TrackAnalysis{
		TrackID:         trackID,
		DurationSeconds: 300,
		Segments:        []domain.Segment{{Start: 0, Duration: 300, Pitches: pitches}},
		Beats:           beats,
	}
}

func TestEngine_FramePipelineSnapsOnBeat(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, provider, surface, bus := newTestEngine(t)
	defer func() { require.NoError(t, engine.Close()) }()

	pitches := make([]float64, domain.BandCount)
	for i := range pitches {
		pitches[i] = 0.8
	}
	provider.Register(flatAnalysis("t1", pitches, []domain.Beat{{Start: 10.0, Confidence: 0.9}}))

	t0 := time.Now()
	loadTrack(t, engine, bus, domain.PlaybackSample{
		TrackID: "t1", Position: 9.0, Duration: 300, IsPlaying: true, SampledAt: t0,
	})

	// One second later the position crosses the beat at 10.0: every bar
	// snaps to pitch * height * fraction * energy = 0.8*200*0.5*1.0 = 80.
	engine.Step(t0.Add(time.Second))

	frame := surface.lastFrame()
	require.Len(t, frame, domain.BandCount)
	for _, h := range frame {
		assert.Equal(t, 80.0, h)
	}

	// The next frame decays: 80 * 0.9 = 72.
	engine.Step(t0.Add(1100 * time.Millisecond))
	for _, h := range surface.lastFrame() {
		assert.InDelta(t, 72.0, h, 1e-9)
	}
}

func TestEngine_NoDataRendersFlat(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, _, surface, _ := newTestEngine(t)
	defer func() { require.NoError(t, engine.Close()) }()

	engine.Step(time.Now())

	// Neutral fallbacks: zero pitches on the floor, no error anywhere.
	frame := surface.lastFrame()
	require.Len(t, frame, domain.BandCount)
	for _, h := range frame {
		assert.Equal(t, 2.0, h)
	}
}

func TestEngine_SurfaceNotReadySkipsFrame(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, _, surface, _ := newTestEngine(t)
	defer func() { require.NoError(t, engine.Close()) }()

	surface.mu.Lock()
	surface.ready = false
	surface.mu.Unlock()

	engine.Step(time.Now())
	assert.Equal(t, 0, surface.frameCount())

	// Transient: once the surface attaches, frames flow again.
	surface.mu.Lock()
	surface.ready = true
	surface.mu.Unlock()

	engine.Step(time.Now())
	assert.Equal(t, 1, surface.frameCount())
}

func TestEngine_TrackChangeResetsCursors(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, provider, _, bus := newTestEngine(t)
	defer func() { require.NoError(t, engine.Close()) }()

	provider.Register(memory.DemoAnalysis("a", 120))
	provider.Register(memory.DemoAnalysis("b", 120))

	t0 := time.Now()
	loadTrack(t, engine, bus, domain.PlaybackSample{
		TrackID: "a", Position: 60.0, Duration: 120, IsPlaying: true, SampledAt: t0,
	})

	// Advance both cursors deep into track A.
	engine.Step(t0)
	require.Greater(t, engine.locator.Cursor(), 0)
	require.GreaterOrEqual(t, engine.detector.Cursor(), 0)

	var changed domain.TrackChangedEvent
	bus.Subscribe(domain.EventTrackChanged, func(e domain.Event) {
		changed = e.(domain.TrackChangedEvent)
	})

	loadTrack(t, engine, bus, domain.PlaybackSample{
		TrackID: "b", Position: 0.0, Duration: 120, IsPlaying: true, SampledAt: t0,
	})

	assert.Equal(t, 0, engine.locator.Cursor())
	assert.Equal(t, -1, engine.detector.Cursor())
	assert.Equal(t, "a", changed.PreviousID)
	assert.Equal(t, "b", changed.TrackID)
}

func TestEngine_BeatCrossedEventPublished(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, provider, _, bus := newTestEngine(t)
	defer func() { require.NoError(t, engine.Close()) }()

	pitches := make([]float64, domain.BandCount)
	provider.Register(flatAnalysis("t1", pitches, []domain.Beat{
		{Start: 5.0, Confidence: 0.05}, // below threshold
		{Start: 6.0, Confidence: 0.9},
	}))

	t0 := time.Now()
	loadTrack(t, engine, bus, domain.PlaybackSample{
		TrackID: "t1", Position: 4.5, Duration: 300, IsPlaying: true, SampledAt: t0,
	})

	var events []domain.BeatCrossedEvent
	bus.Subscribe(domain.EventBeatCrossed, func(e domain.Event) {
		events = append(events, e.(domain.BeatCrossedEvent))
	})

	// The first step crosses the sub-threshold beat at 5.0, the second the
	// confident one at 6.0, the third crosses nothing new.
	engine.Step(t0.Add(1 * time.Second))
	engine.Step(t0.Add(1700 * time.Millisecond))
	engine.Step(t0.Add(1800 * time.Millisecond))

	require.Len(t, events, 1)
	assert.Equal(t, 0.9, events[0].Confidence)
}

func TestEngine_ApplyConfig(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, _, _, bus := newTestEngine(t)
	defer func() { require.NoError(t, engine.Close()) }()

	var event domain.ConfigChangedEvent
	bus.Subscribe(domain.EventConfigChanged, func(e domain.Event) {
		event = e.(domain.ConfigChangedEvent)
	})

	law := domain.LawLogarithmic
	decay := 0.8
	require.NoError(t, engine.ApplyConfig(domain.ConfigPatch{Law: &law, DecayRate: &decay}))

	cfg := engine.Config()
	assert.Equal(t, domain.LawLogarithmic, cfg.Law)
	assert.Equal(t, 0.8, cfg.DecayRate)
	assert.Equal(t, cfg, event.Config)

	// An invalid patch changes nothing.
	bad := 1.5
	err := engine.ApplyConfig(domain.ConfigPatch{DecayRate: &bad})
	require.Error(t, err)
	assert.Equal(t, 0.8, engine.Config().DecayRate)
}

func TestEngine_Reset(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, provider, surface, bus := newTestEngine(t)
	defer func() { require.NoError(t, engine.Close()) }()

	provider.Register(memory.DemoAnalysis("t1", 120))
	loadTrack(t, engine, bus, domain.PlaybackSample{
		TrackID: "t1", Position: 10.0, Duration: 120, IsPlaying: true, SampledAt: time.Now(),
	})
	engine.SetEnabled(true)
	require.True(t, engine.Runnable())

	engine.Reset()

	assert.False(t, engine.Runnable())
	assert.True(t, surface.cleared)
	for _, h := range engine.animator.Heights() {
		assert.Equal(t, 0.0, h)
	}

	// The same track is treated as new again after a reset.
	loadTrack(t, engine, bus, domain.PlaybackSample{
		TrackID: "t1", Position: 10.0, Duration: 120, IsPlaying: true, SampledAt: time.Now(),
	})
	assert.True(t, engine.Runnable())
}

func TestEngine_SchedulerRendersWhenEnabled(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, provider, surface, bus := newTestEngine(t)

	provider.Register(memory.DemoAnalysis("t1", 120))
	loadTrack(t, engine, bus, domain.PlaybackSample{
		TrackID: "t1", Position: 0, Duration: 120, IsPlaying: true, SampledAt: time.Now(),
	})

	engine.SetEnabled(true)
	require.Eventually(t, func() bool { return surface.frameCount() > 2 }, time.Second, time.Millisecond)

	// Disabling lets the loop stop itself on its next enablement check.
	engine.SetEnabled(false)
	require.Eventually(t, func() bool {
		return engine.Scheduler().State() == SchedulerStopped
	}, time.Second, time.Millisecond)

	require.NoError(t, engine.Close())
}

func TestEngine_ClosedEngineIgnoresUpdates(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine, provider, _, _ := newTestEngine(t)
	provider.Register(memory.DemoAnalysis("t1", 120))

	require.NoError(t, engine.Close())

	engine.Update(domain.PlaybackSample{
		TrackID: "t1", Position: 0, Duration: 120, IsPlaying: true, SampledAt: time.Now(),
	})
	assert.False(t, engine.Runnable())

	err := engine.ApplyConfig(domain.ConfigPatch{})
	assert.ErrorIs(t, err, domain.ErrEngineClosed)
}

func TestEngine_InvalidConfigRejected(t *testing.T) {
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)

	cfg := domain.DefaultVisualizerConfig()
	cfg.DecayRate = 2.0

	_, err := NewEngine(log, bus, memory.NewProvider(), &fakeSurface{}, cfg)
	require.Error(t, err)

	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}
