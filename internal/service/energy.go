package service

import (
	"math"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
)

// SectionEnergy computes the macro energy scale in [0,1] for a position
// from the containing section's loudness.
//
// The scale fails open: with no sections, or no section containing the
// position, the energy is 1.0 so missing data dims nothing.
func SectionEnergy(sections []domain.Section, position float64, calibration domain.CalibrationRange, law domain.ScalingLaw) float64 {
	section, ok := sectionAt(sections, position)
	if !ok {
		return 1.0
	}

	switch law {
	case domain.LawLogarithmic:
		return logarithmicEnergy(section.LoudnessDb)
	default:
		return linearEnergy(section.LoudnessDb, calibration)
	}
}

// sectionAt finds the section containing the position.
// Sections may be non-contiguous, so this is a plain linear scan.
func sectionAt(sections []domain.Section, position float64) (domain.Section, bool) {
	for _, s := range sections {
		if s.Contains(position) {
			return s, true
		}
	}
	return domain.Section{}, false
}

// linearEnergy normalizes loudness across the track's calibration range.
// A degenerate range (all sections equally loud) yields full energy.
func linearEnergy(loudnessDb float64, calibration domain.CalibrationRange) float64 {
	span := calibration.Span()
	if span <= 0 {
		return 1.0
	}

	energy := (loudnessDb - calibration.MinDb) / span
	if energy < 0 {
		return 0
	}
	if energy > 1 {
		return 1
	}
	return energy
}

// logarithmicEnergy converts loudness to amplitude via 10^(dB/20), with
// the loudness clamped to [-60, 0] dB first.
func logarithmicEnergy(loudnessDb float64) float64 {
	if loudnessDb < -60 {
		loudnessDb = -60
	}
	if loudnessDb > 0 {
		loudnessDb = 0
	}
	return math.Pow(10, loudnessDb/20)
}
