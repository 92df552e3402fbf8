package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

// sampleSink consumes playback samples. Implemented by Engine.
type sampleSink interface {
	Update(sample domain.PlaybackSample)
}

// Poller periodically queries a playback source and feeds every sample to
// the engine. It is the slow half of the two-clock design; the scheduler's
// frame loop is the fast one.
//
// A failed poll is logged and skipped; the engine simply keeps
// extrapolating from its previous anchor until the source recovers.
type Poller struct {
	logger   *slog.Logger
	source   ports.PlaybackSource
	sink     sampleSink
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(logger *slog.Logger, source ports.PlaybackSource, sink sampleSink, interval time.Duration) *Poller {
	return &Poller{
		logger:   logger,
		source:   source,
		sink:     sink,
		interval: interval,
	}
}

// Start launches the poll loop. No-op while already running.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop = stop
	p.done = done
	p.mu.Unlock()

	p.logger.Debug("poll loop starting", slog.Duration("interval", p.interval))

	go func() {
		defer close(done)

		// Poll immediately rather than waiting out the first interval.
		p.poll()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.poll()
			}
		}
	}()
}

// poll takes one sample from the source and hands it to the sink.
func (p *Poller) poll() {
	sample, err := p.source.Status()
	if err != nil {
		p.logger.Debug("poll failed", slog.Any("error", err))
		return
	}
	p.sink.Update(sample)
}

// Stop cancels the poll loop and waits for it to exit. Idempotent.
// Like the scheduler, Stop waits only on the loop it cancelled.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	done := p.done
	p.mu.Unlock()

	<-done
	p.logger.Debug("poll loop stopped")
}
