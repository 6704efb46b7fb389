// Package calib implements the calibration compliance suite: it drives
// acquisition over known reference targets, scores depth and SNR accuracy
// against their ground truth, re-estimates propagation velocity, and emits
// a calibration report.
package calib

import "github.com/banshee-data/subsurface.report/internal/units"

// CalibrationTarget is a ground-truth reference reflector buried at a known
// depth in the calibration pit.
type CalibrationTarget struct {
	// Label is the human name of the target ("shallow", "deep", ...).
	Label string `json:"label"`

	// NominalDepthM is the surveyed burial depth in meters.
	NominalDepthM float64 `json:"nominal_depth_m"`

	// ToleranceM is the absolute depth tolerance for a passing measurement.
	ToleranceM float64 `json:"tolerance_m"`

	// MinSNRdB is the minimum required detection SNR.
	MinSNRdB float64 `json:"min_snr_db"`

	// Material describes the reflector and surrounding medium.
	Material string `json:"material,omitempty"`

	// Permittivity is the relative permittivity of the surrounding medium.
	Permittivity float64 `json:"permittivity,omitempty"`
}

// ExpectedVelocityMpns returns the propagation velocity implied by the
// target's medium permittivity, or zero when unknown.
func (t CalibrationTarget) ExpectedVelocityMpns() float64 {
	if t.Permittivity <= 0 {
		return 0
	}
	return units.VelocityFromPermittivity(t.Permittivity)
}

// DefaultTargets returns the standard reference set installed in the
// calibration pit.
func DefaultTargets() []CalibrationTarget {
	return []CalibrationTarget{
		{
			Label:         "shallow",
			NominalDepthM: 0.5,
			ToleranceM:    0.05,
			MinSNRdB:      20.0,
			Material:      "metal plate in sand",
			Permittivity:  4.0,
		},
		{
			Label:         "mid",
			NominalDepthM: 1.0,
			ToleranceM:    0.08,
			MinSNRdB:      15.0,
			Material:      "reinforcing bar in soil",
			Permittivity:  9.0,
		},
		{
			Label:         "deep",
			NominalDepthM: 2.0,
			ToleranceM:    0.15,
			MinSNRdB:      10.0,
			Material:      "pipe in clay",
			Permittivity:  16.0,
		},
	}
}
