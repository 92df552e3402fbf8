// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that adapters and services can return.
var (
	// ErrAnalysisNotFound is returned when no analysis exists for a track.
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrNoTrack is returned when an operation requires a loaded track.
	ErrNoTrack = errors.New("no track loaded")

	// ErrPlayerUnavailable is returned when the remote player cannot be reached.
	ErrPlayerUnavailable = errors.New("player unavailable")

	// ErrUnsupportedFormat is returned when an audio file format is not supported
	// by the offline analyzer.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrEngineClosed is returned when an operation is attempted on a closed engine.
	ErrEngineClosed = errors.New("engine closed")
)

// ProviderError represents an error from an analysis or playback provider.
// It wraps low-level transport and decoding errors with additional context.
type ProviderError struct {
	Op      string // Operation that failed (e.g., "status", "analysis", "decode")
	TrackID string // Track identity (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.TrackID != "" {
		return fmt.Sprintf("provider %s failed for track %q: %s", e.Op, e.TrackID, e.Message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(op, trackID, message string, err error) *ProviderError {
	return &ProviderError{
		Op:      op,
		TrackID: trackID,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
