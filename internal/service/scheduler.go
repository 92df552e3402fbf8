package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

// SchedulerState is the lifecycle state of the animation scheduler.
type SchedulerState int

const (
	// SchedulerStopped indicates no frame loop is running.
	SchedulerStopped SchedulerState = iota

	// SchedulerRunning indicates the frame loop is active.
	SchedulerRunning
)

// String returns a human-readable representation of the scheduler state.
func (s SchedulerState) String() string {
	switch s {
	case SchedulerStopped:
		return "stopped"
	case SchedulerRunning:
		return "running"
	default:
		return "unknown"
	}
}

// FrameTarget is driven by the scheduler, one call per frame.
type FrameTarget interface {
	// Step renders one frame at the given time.
	Step(now time.Time)

	// Runnable reports whether frames should keep coming. The scheduler
	// re-checks this before every frame and stops itself when it turns
	// false, so a disabled engine or a track without data costs nothing.
	Runnable() bool
}

// AnimationScheduler drives the per-frame render loop.
//
// There is never more than one loop goroutine: Start while running is a
// no-op and Stop is idempotent. Stop cancels the pending frame so no
// callback fires after teardown.
type AnimationScheduler struct {
	logger *slog.Logger
	bus    ports.EventBus
	target FrameTarget

	mu       sync.Mutex
	interval time.Duration
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// NewAnimationScheduler creates a stopped scheduler ticking at the given interval.
func NewAnimationScheduler(logger *slog.Logger, bus ports.EventBus, target FrameTarget, interval time.Duration) *AnimationScheduler {
	return &AnimationScheduler{
		logger:   logger,
		bus:      bus,
		target:   target,
		interval: interval,
	}
}

// Start transitions Stopped to Running and launches the frame loop.
// It is a no-op while already Running, and also when the target is not
// currently runnable (the next Start attempt after data arrives will
// succeed).
func (s *AnimationScheduler) Start() {
	s.mu.Lock()
	if s.running || !s.target.Runnable() {
		s.mu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop = stop
	s.done = done
	interval := s.interval
	s.mu.Unlock()

	s.logger.Debug("render loop starting", slog.Duration("interval", interval))
	s.bus.Publish(domain.NewVisualizerStartedEvent())

	go s.loop(stop, done, interval)
}

// loop is the frame loop goroutine. It closes done on exit so Stop can
// wait for exactly this loop.
func (s *AnimationScheduler) loop(stop, done chan struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return

		case now := <-ticker.C:
			if !s.target.Runnable() {
				s.selfStop(stop)
				return
			}
			s.target.Step(now)
		}
	}
}

// selfStop transitions to Stopped from inside the loop goroutine when the
// enablement or data-availability check fails.
func (s *AnimationScheduler) selfStop(stop chan struct{}) {
	s.mu.Lock()
	// Only clear the state if no newer loop has been started meanwhile.
	if s.running && s.stop == stop {
		s.running = false
	}
	s.mu.Unlock()

	s.logger.Debug("render loop self-stopped")
	s.bus.Publish(domain.NewVisualizerStoppedEvent("target not runnable"))
}

// Stop cancels the pending frame and waits for the loop goroutine to exit.
// Idempotent; stopping a stopped scheduler does nothing.
//
// Stop waits only on the loop it cancelled, never on a loop launched by a
// concurrent Start, so it cannot block behind a restart racing in from the
// poll goroutine.
//
// Stop must not be called from an event handler fired by the frame loop.
func (s *AnimationScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done

	s.logger.Debug("render loop stopped")
	s.bus.Publish(domain.NewVisualizerStoppedEvent("stopped"))
}

// State returns the current scheduler state.
func (s *AnimationScheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return SchedulerRunning
	}
	return SchedulerStopped
}

// SetInterval changes the frame interval. A running loop is restarted so
// the new rate takes effect immediately.
func (s *AnimationScheduler) SetInterval(interval time.Duration) {
	s.mu.Lock()
	s.interval = interval
	running := s.running
	s.mu.Unlock()

	if running {
		s.Stop()
		s.Start()
	}
}
