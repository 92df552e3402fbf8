package service

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

// Engine is the audio-reactive rendering engine.
//
// It ties the slow external poll to the fast render loop: Update anchors
// the estimator and swaps the analysis on track change, while Step runs
// once per frame, estimating the position, detecting beat crossings,
// looking up the pitch vector, scaling by section energy, advancing the
// bar animation and pushing the frame to the surface.
//
// Nothing in the engine is fatal. Missing or malformed data degrades to
// neutral values (zero pitches, full energy, no beats); the worst case is
// a flat display, never an error surfaced to the caller.
//
// All operations are thread-safe. A single mutex serializes Update, Step,
// Reset and config swaps, so cursor resets are always atomic with the
// analysis swap that triggered them.
type Engine struct {
	logger   *slog.Logger
	bus      ports.EventBus
	provider ports.AnalysisProvider
	surface  ports.RenderSurface

	enabled atomic.Bool
	closed  atomic.Bool

	mu           sync.RWMutex
	cfg          domain.VisualizerConfig
	lastDuration float64

	estimator *PositionEstimator
	store     *AnalysisStore
	locator   *SegmentLocator
	detector  *BeatDetector
	animator  *BarAnimator

	scheduler *AnimationScheduler
}

// NewEngine creates an engine and its (stopped) frame scheduler.
// The configuration is validated; rendering starts once the engine is
// enabled and analysis data is available.
func NewEngine(
	logger *slog.Logger,
	bus ports.EventBus,
	provider ports.AnalysisProvider,
	surface ports.RenderSurface,
	cfg domain.VisualizerConfig,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		logger:    logger,
		bus:       bus,
		provider:  provider,
		surface:   surface,
		cfg:       cfg,
		estimator: NewPositionEstimator(),
		store:     NewAnalysisStore(logger, bus),
		locator:   NewSegmentLocator(),
		detector:  NewBeatDetector(),
		animator:  NewBarAnimator(),
	}
	engine.scheduler = NewAnimationScheduler(logger, bus, engine, frameInterval(cfg.FrameRate))
	engine.enabled.Store(true)

	logger.Debug("engine initialized",
		slog.Int("frame_rate", cfg.FrameRate),
		slog.String("law", cfg.Law.String()))

	return engine, nil
}

// frameInterval converts a frame rate to a ticker interval.
func frameInterval(frameRate int) time.Duration {
	return time.Second / time.Duration(frameRate)
}

// Update feeds one poll sample into the engine. Call it on every poll
// tick, regardless of track identity.
//
// The estimator anchor is always refreshed. When the track identity
// changed, the analysis is invalidated and refetched, and both per-track
// cursors are reset in the same critical section, so no index ever leaks
// from one track's analysis into the next.
func (e *Engine) Update(sample domain.PlaybackSample) {
	if e.closed.Load() {
		return
	}

	e.mu.Lock()
	e.estimator.Sync(sample)
	e.lastDuration = sample.Duration

	previousID := e.store.TrackID()
	changed := e.store.LoadIfTrackChanged(sample.TrackID, e.provider)
	if changed {
		e.locator.Reset()
		e.detector.Reset()
	}
	e.mu.Unlock()

	if changed {
		e.bus.Publish(domain.NewTrackChangedEvent(previousID, sample.TrackID))
	}

	// Kick the frame loop; a no-op while it is already running or while
	// there is nothing to render yet.
	e.scheduler.Start()
}

// Step renders one frame. It is driven by the scheduler but exported so
// tests can step deterministically.
func (e *Engine) Step(now time.Time) {
	e.mu.Lock()

	// The surface being unattached or zero-sized is transient; skip the
	// frame and try again on the next tick.
	if e.surface == nil || !e.surface.Ready() {
		e.mu.Unlock()
		return
	}

	cfg := e.cfg
	analysis, calibration := e.store.Snapshot()

	duration := e.lastDuration
	if duration <= 0 && analysis != nil {
		duration = analysis.DurationSeconds
	}
	position := e.estimator.Estimate(now, duration)

	var segments []domain.Segment
	var beats []domain.Beat
	var sections []domain.Section
	if analysis != nil {
		segments = analysis.Segments
		beats = analysis.Beats
		sections = analysis.Sections
	}

	crossing := e.detector.Check(beats, position, cfg.BeatConfidenceThreshold)
	pitches := e.locator.Lookup(segments, position)
	energy := SectionEnergy(sections, position, calibration, cfg.Law)
	heights := e.animator.Step(pitches, energy, crossing.Hit, e.surface.Height(), cfg)

	e.mu.Unlock()

	e.surface.SetFrame(heights)

	if crossing.Hit && e.bus.HasSubscribers(domain.EventBeatCrossed) {
		e.bus.Publish(domain.NewBeatCrossedEvent(position, crossing.Confidence))
	}
}

// Runnable reports whether the frame loop should keep running: the engine
// must be open and enabled with a usable analysis committed. A closed
// engine is never runnable, so a loop raced into existence around Close
// stops itself on its next frame.
func (e *Engine) Runnable() bool {
	return !e.closed.Load() && e.enabled.Load() && e.store.HasData()
}

// SetEnabled flips the enable signal. Enabling starts the frame loop if
// data is available; disabling lets the loop stop itself on its next
// enablement check.
func (e *Engine) SetEnabled(enabled bool) {
	e.enabled.Store(enabled)
	if enabled {
		e.scheduler.Start()
	}
}

// Enabled returns the current enable signal.
func (e *Engine) Enabled() bool {
	return e.enabled.Load()
}

// Config returns the current configuration snapshot.
func (e *Engine) Config() domain.VisualizerConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// ApplyConfig merges a partial configuration update and hot-swaps it into
// the render loop. The merged configuration is validated as a whole; an
// invalid patch changes nothing.
func (e *Engine) ApplyConfig(patch domain.ConfigPatch) error {
	if e.closed.Load() {
		return domain.ErrEngineClosed
	}

	e.mu.Lock()
	next := e.cfg.Apply(patch)
	if err := next.Validate(); err != nil {
		e.mu.Unlock()
		return err
	}
	frameRateChanged := next.FrameRate != e.cfg.FrameRate
	e.cfg = next
	e.mu.Unlock()

	if frameRateChanged {
		e.scheduler.SetInterval(frameInterval(next.FrameRate))
	}

	e.logger.Info("configuration updated",
		slog.Int("frame_rate", next.FrameRate),
		slog.String("law", next.Law.String()),
		slog.Float64("decay_rate", next.DecayRate))
	e.bus.Publish(domain.NewConfigChangedEvent(next))

	return nil
}

// Reset clears all engine state: analysis, cursors, estimator anchor and
// bar heights. The frame loop is stopped and the surface cleared. The next
// Update starts over as with a fresh engine.
func (e *Engine) Reset() {
	e.scheduler.Stop()

	e.mu.Lock()
	e.store.Reset()
	e.locator.Reset()
	e.detector.Reset()
	e.animator.Reset()
	e.estimator.Reset()
	e.lastDuration = 0
	e.mu.Unlock()

	if e.surface != nil {
		e.surface.Clear()
	}

	e.logger.Debug("engine reset")
}

// Scheduler exposes the frame scheduler, mainly for state inspection.
func (e *Engine) Scheduler() *AnimationScheduler {
	return e.scheduler
}

// Close stops the frame loop and waits for any in-flight analysis fetch.
// A closed engine ignores further updates. Close is idempotent.
func (e *Engine) Close() error {
	e.closed.Store(true)
	e.scheduler.Stop()
	e.store.Wait()
	return nil
}
