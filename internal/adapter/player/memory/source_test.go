package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
)

// fixedClock lets tests move simulated time by hand.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newClockedSource(tracks []Track) (*Source, *fixedClock) {
	clock := &fixedClock{now: time.Unix(1000, 0)}
	source := NewSource(tracks)
	source.now = func() time.Time { return clock.now }
	source.startedAt = clock.now
	return source, clock
}

func TestSource_AdvancesThroughPlaylist(t *testing.T) {
	source, clock := newClockedSource([]Track{
		{ID: "first", Duration: 10},
		{ID: "second", Duration: 20},
	})

	sample, err := source.Status()
	require.NoError(t, err)
	assert.Equal(t, "first", sample.TrackID)
	assert.Equal(t, 0.0, sample.Position)
	assert.True(t, sample.IsPlaying)

	clock.advance(4 * time.Second)
	sample, err = source.Status()
	require.NoError(t, err)
	assert.Equal(t, "first", sample.TrackID)
	assert.InDelta(t, 4.0, sample.Position, 1e-9)
	assert.Equal(t, 10.0, sample.Duration)

	// Past the first track boundary.
	clock.advance(8 * time.Second)
	sample, err = source.Status()
	require.NoError(t, err)
	assert.Equal(t, "second", sample.TrackID)
	assert.InDelta(t, 2.0, sample.Position, 1e-9)
	assert.Equal(t, 20.0, sample.Duration)
}

func TestSource_WrapsAtPlaylistEnd(t *testing.T) {
	source, clock := newClockedSource([]Track{
		{ID: "first", Duration: 10},
		{ID: "second", Duration: 20},
	})

	clock.advance(33 * time.Second)
	sample, err := source.Status()
	require.NoError(t, err)
	assert.Equal(t, "first", sample.TrackID)
	assert.InDelta(t, 3.0, sample.Position, 1e-9)
}

func TestSource_PauseFreezesPosition(t *testing.T) {
	source, clock := newClockedSource([]Track{{ID: "only", Duration: 60}})

	clock.advance(5 * time.Second)
	source.SetPlaying(false)

	clock.advance(30 * time.Second)
	sample, err := source.Status()
	require.NoError(t, err)
	assert.False(t, sample.IsPlaying)
	assert.InDelta(t, 5.0, sample.Position, 1e-9)

	// Resuming continues from where it stopped.
	source.SetPlaying(true)
	clock.advance(2 * time.Second)
	sample, err = source.Status()
	require.NoError(t, err)
	assert.True(t, sample.IsPlaying)
	assert.InDelta(t, 7.0, sample.Position, 1e-9)
}

func TestSource_EmptyPlaylist(t *testing.T) {
	source, _ := newClockedSource(nil)

	_, err := source.Status()
	assert.ErrorIs(t, err, domain.ErrNoTrack)
}
