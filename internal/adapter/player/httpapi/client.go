// Package httpapi talks to an external player's HTTP API. It adapts the
// player's JSON endpoints to the engine's playback source and analysis
// provider ports.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

// Config holds the HTTP client configuration.
type Config struct {
	// BaseURL is the root of the player API, e.g. "http://localhost:9090".
	BaseURL string
	// Timeout bounds every request. Analysis fetches run on a background
	// goroutine, so a generous timeout does not stall rendering.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Client is an HTTP adapter for a player exposing playback status and
// per-track analysis documents.
type Client struct {
	logger  *slog.Logger
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given player API.
func NewClient(logger *slog.Logger, cfg Config) *Client {
	return &Client{
		logger:  logger,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// statusDoc is the wire form of the player's status endpoint.
type statusDoc struct {
	TrackID   string  `json:"track_id"`
	Position  float64 `json:"position"`
	Duration  float64 `json:"duration"`
	IsPlaying bool    `json:"is_playing"`
}

// analysisDoc is the wire form of a per-track analysis document.
type analysisDoc struct {
	TrackID  string       `json:"track_id"`
	Duration float64      `json:"duration"`
	Segments []segmentDoc `json:"segments"`
	Beats    []beatDoc    `json:"beats"`
	Sections []sectionDoc `json:"sections"`
}

type segmentDoc struct {
	Start    float64   `json:"start"`
	Duration float64   `json:"duration"`
	Pitches  []float64 `json:"pitches"`
}

type beatDoc struct {
	Start      float64 `json:"start"`
	Confidence float64 `json:"confidence"`
}

type sectionDoc struct {
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	LoudnessDb float64 `json:"loudness_db"`
}

// Status queries the player's current playback state.
func (c *Client) Status() (domain.PlaybackSample, error) {
	var doc statusDoc
	if err := c.getJSON(c.baseURL+"/v1/status", &doc); err != nil {
		return domain.PlaybackSample{}, domain.NewProviderError(
			"status", "", "player status unavailable",
			fmt.Errorf("%w: %w", domain.ErrPlayerUnavailable, err))
	}

	return domain.PlaybackSample{
		TrackID:   doc.TrackID,
		Position:  doc.Position,
		Duration:  doc.Duration,
		IsPlaying: doc.IsPlaying,
		SampledAt: time.Now(),
	}, nil
}

// Analysis fetches the analysis document for a track.
func (c *Client) Analysis(trackID string) (*domain.TrackAnalysis, error) {
	endpoint := c.baseURL + "/v1/tracks/" + url.PathEscape(trackID) + "/analysis"

	resp, err := c.http.Get(endpoint)
	if err != nil {
		return nil, domain.NewProviderError("analysis", trackID, "analysis fetch failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.NewProviderError("analysis", trackID,
			"no analysis for track", domain.ErrAnalysisNotFound)
	default:
		return nil, domain.NewProviderError("analysis", trackID,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var doc analysisDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, domain.NewProviderError("analysis", trackID, "malformed analysis document", err)
	}

	c.logger.Debug("analysis fetched",
		slog.String("track_id", trackID),
		slog.Int("segments", len(doc.Segments)),
		slog.Int("beats", len(doc.Beats)),
		slog.Int("sections", len(doc.Sections)))

	return docToAnalysis(trackID, doc), nil
}

// docToAnalysis maps the wire form to the domain model.
func docToAnalysis(trackID string, doc analysisDoc) *domain.TrackAnalysis {
	analysis := &domain.TrackAnalysis{
		TrackID:         trackID,
		DurationSeconds: doc.Duration,
		Segments:        make([]domain.Segment, 0, len(doc.Segments)),
		Beats:           make([]domain.Beat, 0, len(doc.Beats)),
		Sections:        make([]domain.Section, 0, len(doc.Sections)),
	}
	for _, s := range doc.Segments {
		analysis.Segments = append(analysis.Segments, domain.Segment{
			Start:    s.Start,
			Duration: s.Duration,
			Pitches:  s.Pitches,
		})
	}
	for _, b := range doc.Beats {
		analysis.Beats = append(analysis.Beats, domain.Beat{
			Start:      b.Start,
			Confidence: b.Confidence,
		})
	}
	for _, s := range doc.Sections {
		analysis.Sections = append(analysis.Sections, domain.Section{
			Start:      s.Start,
			Duration:   s.Duration,
			LoudnessDb: s.LoudnessDb,
		})
	}
	return analysis
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *Client) getJSON(endpoint string, out any) error {
	resp, err := c.http.Get(endpoint)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Verify interface implementations at compile time.
var (
	_ ports.PlaybackSource   = (*Client)(nil)
	_ ports.AnalysisProvider = (*Client)(nil)
)
