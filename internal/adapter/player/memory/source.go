// Package memory provides an in-process playback source that simulates a
// player working through a playlist. It backs the demo mode and tests,
// where no external player is reachable.
package memory

import (
	"sync"
	"time"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

// Track is one entry in the simulated playlist.
type Track struct {
	ID       string
	Duration float64
}

// Source simulates playback over a fixed playlist. Position advances with
// wall-clock time and wraps to the next track at each track boundary.
type Source struct {
	mu        sync.Mutex
	tracks    []Track
	total     float64
	startedAt time.Time
	pausedAt  time.Time
	playing   bool
	now       func() time.Time
}

// NewSource creates a playing source positioned at the start of the first
// track.
func NewSource(tracks []Track) *Source {
	s := &Source{
		tracks:  tracks,
		playing: true,
		now:     time.Now,
	}
	for _, t := range tracks {
		s.total += t.Duration
	}
	s.startedAt = s.now()
	return s
}

// Status reports the currently playing track and position.
func (s *Source) Status() (domain.PlaybackSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tracks) == 0 || s.total <= 0 {
		return domain.PlaybackSample{}, domain.ErrNoTrack
	}

	now := s.now()
	ref := now
	if !s.playing {
		ref = s.pausedAt
	}

	elapsed := ref.Sub(s.startedAt).Seconds()
	offset := elapsed - float64(int(elapsed/s.total))*s.total

	for _, t := range s.tracks {
		if offset < t.Duration {
			return domain.PlaybackSample{
				TrackID:   t.ID,
				Position:  offset,
				Duration:  t.Duration,
				IsPlaying: s.playing,
				SampledAt: now,
			}, nil
		}
		offset -= t.Duration
	}

	// Floating point can leave offset exactly at the end; report the last
	// track at its boundary.
	last := s.tracks[len(s.tracks)-1]
	return domain.PlaybackSample{
		TrackID:   last.ID,
		Position:  last.Duration,
		Duration:  last.Duration,
		IsPlaying: s.playing,
		SampledAt: now,
	}, nil
}

// SetPlaying pauses or resumes the simulated playback. Pausing freezes the
// position; resuming shifts the start anchor so the position continues from
// where it stopped.
func (s *Source) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playing == s.playing {
		return
	}
	if playing {
		s.startedAt = s.startedAt.Add(s.now().Sub(s.pausedAt))
	} else {
		s.pausedAt = s.now()
	}
	s.playing = playing
}

// Verify interface implementation at compile time.
var _ ports.PlaybackSource = (*Source)(nil)
