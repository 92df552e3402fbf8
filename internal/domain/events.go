// Package domain defines events for the event-driven architecture.
// Events decouple the rendering engine from the UI and logging layers.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Track events
	EventTrackChanged EventType = "track.changed"

	// Analysis events
	EventAnalysisLoaded EventType = "analysis.loaded"
	EventAnalysisFailed EventType = "analysis.failed"

	// Render loop events
	EventBeatCrossed       EventType = "beat.crossed"
	EventVisualizerStarted EventType = "visualizer.started"
	EventVisualizerStopped EventType = "visualizer.stopped"
	EventConfigChanged     EventType = "config.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackChangedEvent is published when the polled track identity changes.
type TrackChangedEvent struct {
	baseEvent
	PreviousID string
	TrackID    string
}

// Type returns the event type.
func (e TrackChangedEvent) Type() EventType {
	return EventTrackChanged
}

// NewTrackChangedEvent creates a new TrackChangedEvent.
func NewTrackChangedEvent(previousID, trackID string) TrackChangedEvent {
	return TrackChangedEvent{
		baseEvent:  newBaseEvent(),
		PreviousID: previousID,
		TrackID:    trackID,
	}
}

// AnalysisLoadedEvent is published when a track analysis is committed.
type AnalysisLoadedEvent struct {
	baseEvent
	TrackID      string
	SegmentCount int
	BeatCount    int
	SectionCount int
	Calibration  CalibrationRange
}

// Type returns the event type.
func (e AnalysisLoadedEvent) Type() EventType {
	return EventAnalysisLoaded
}

// NewAnalysisLoadedEvent creates a new AnalysisLoadedEvent.
func NewAnalysisLoadedEvent(analysis *TrackAnalysis, calibration CalibrationRange) AnalysisLoadedEvent {
	return AnalysisLoadedEvent{
		baseEvent:    newBaseEvent(),
		TrackID:      analysis.TrackID,
		SegmentCount: len(analysis.Segments),
		BeatCount:    len(analysis.Beats),
		SectionCount: len(analysis.Sections),
		Calibration:  calibration,
	}
}

// AnalysisFailedEvent is published when an analysis fetch fails.
// A failed fetch is not fatal; the engine degrades to a flat display.
type AnalysisFailedEvent struct {
	baseEvent
	TrackID string
	Err     error
}

// Type returns the event type.
func (e AnalysisFailedEvent) Type() EventType {
	return EventAnalysisFailed
}

// NewAnalysisFailedEvent creates a new AnalysisFailedEvent.
func NewAnalysisFailedEvent(trackID string, err error) AnalysisFailedEvent {
	return AnalysisFailedEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
		Err:       err,
	}
}

// BeatCrossedEvent is published when playback crosses a beat whose
// confidence clears the configured threshold.
type BeatCrossedEvent struct {
	baseEvent
	Position   float64
	Confidence float64
}

// Type returns the event type.
func (e BeatCrossedEvent) Type() EventType {
	return EventBeatCrossed
}

// NewBeatCrossedEvent creates a new BeatCrossedEvent.
func NewBeatCrossedEvent(position, confidence float64) BeatCrossedEvent {
	return BeatCrossedEvent{
		baseEvent:  newBaseEvent(),
		Position:   position,
		Confidence: confidence,
	}
}

// VisualizerStartedEvent is published when the frame loop starts.
type VisualizerStartedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e VisualizerStartedEvent) Type() EventType {
	return EventVisualizerStarted
}

// NewVisualizerStartedEvent creates a new VisualizerStartedEvent.
func NewVisualizerStartedEvent() VisualizerStartedEvent {
	return VisualizerStartedEvent{baseEvent: newBaseEvent()}
}

// VisualizerStoppedEvent is published when the frame loop stops.
type VisualizerStoppedEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e VisualizerStoppedEvent) Type() EventType {
	return EventVisualizerStopped
}

// NewVisualizerStoppedEvent creates a new VisualizerStoppedEvent.
func NewVisualizerStoppedEvent(reason string) VisualizerStoppedEvent {
	return VisualizerStoppedEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}

// ConfigChangedEvent is published when the engine configuration is hot-swapped.
type ConfigChangedEvent struct {
	baseEvent
	Config VisualizerConfig
}

// Type returns the event type.
func (e ConfigChangedEvent) Type() EventType {
	return EventConfigChanged
}

// NewConfigChangedEvent creates a new ConfigChangedEvent.
func NewConfigChangedEvent(config VisualizerConfig) ConfigChangedEvent {
	return ConfigChangedEvent{
		baseEvent: newBaseEvent(),
		Config:    config,
	}
}
