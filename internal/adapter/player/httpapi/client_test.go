package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(logger.NewTestLogger(), DefaultConfig(server.URL))
}

func TestClient_Status(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"track_id":"t42","position":12.25,"duration":180.5,"is_playing":true}`))
	}))

	sample, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, "t42", sample.TrackID)
	assert.Equal(t, 12.25, sample.Position)
	assert.Equal(t, 180.5, sample.Duration)
	assert.True(t, sample.IsPlaying)
	assert.False(t, sample.SampledAt.IsZero())
}

func TestClient_StatusPlayerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on
	client := NewClient(logger.NewTestLogger(), DefaultConfig(server.URL))

	_, err := client.Status()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPlayerUnavailable)
}

func TestClient_Analysis(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tracks/t42/analysis", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"track_id": "t42",
			"duration": 180.5,
			"segments": [{"start": 0, "duration": 0.25, "pitches": [1,0,0,0,0,0,0,0,0,0,0,0]}],
			"beats": [{"start": 0.5, "confidence": 0.9}],
			"sections": [{"start": 0, "duration": 60, "loudness_db": -12.5}]
		}`))
	}))

	analysis, err := client.Analysis("t42")
	require.NoError(t, err)
	assert.Equal(t, "t42", analysis.TrackID)
	assert.Equal(t, 180.5, analysis.DurationSeconds)
	require.Len(t, analysis.Segments, 1)
	assert.Equal(t, 1.0, analysis.Segments[0].Pitches[0])
	require.Len(t, analysis.Beats, 1)
	assert.Equal(t, 0.9, analysis.Beats[0].Confidence)
	require.Len(t, analysis.Sections, 1)
	assert.Equal(t, -12.5, analysis.Sections[0].LoudnessDb)
}

func TestClient_AnalysisNotFound(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.Analysis("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "missing", provErr.TrackID)
}

func TestClient_AnalysisServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Analysis("t42")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAnalysisNotFound)
}

func TestClient_AnalysisMalformedBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"segments": "nope"`))
	}))

	_, err := client.Analysis("t42")
	require.Error(t, err)
}
