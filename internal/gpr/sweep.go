package gpr

import (
	"math"
	"math/cmplx"
	"time"
)

// relative tolerance for step-spacing uniformity. Synthesisers producing
// frequency lists with float rounding still pass; genuinely irregular sweeps
// do not.
const stepSpacingTolerance = 1e-6

// Geolocation is an optional GPS fix attached to a capture.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation_m"`
}

// FrequencyStep is one (frequency, complex sample) pair of a stepped sweep.
type FrequencyStep struct {
	FrequencyHz float64    `json:"frequency_hz"`
	Sample      complex128 `json:"-"`
}

// FrequencySweep is one complete stepped-frequency acquisition: an ordered
// sequence of frequency steps, the capture sample rate, a timestamp, and an
// optional geolocation. Step frequencies must be strictly increasing with
// uniform spacing for range reconstruction to be valid.
type FrequencySweep struct {
	Steps        []FrequencyStep `json:"steps"`
	SampleRateHz float64         `json:"sample_rate_hz"`
	CapturedAt   time.Time       `json:"captured_at"`
	Location     *Geolocation    `json:"location,omitempty"`
}

// NumSteps returns the sweep length.
func (s *FrequencySweep) NumSteps() int { return len(s.Steps) }

// StepSpacingHz returns the frequency increment between adjacent steps.
// Only meaningful after Validate.
func (s *FrequencySweep) StepSpacingHz() float64 {
	if len(s.Steps) < 2 {
		return 0
	}
	return s.Steps[1].FrequencyHz - s.Steps[0].FrequencyHz
}

// BandwidthHz returns the span from the first to the last step.
func (s *FrequencySweep) BandwidthHz() float64 {
	if len(s.Steps) < 2 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].FrequencyHz - s.Steps[0].FrequencyHz
}

// Validate checks the sweep invariants: length of at least two steps,
// strictly increasing uniformly spaced frequencies, and finite samples.
// A violation returns an *InvalidSweepError; malformed sweeps are never
// silently repaired.
func (s *FrequencySweep) Validate() error {
	if len(s.Steps) < 2 {
		return &InvalidSweepError{Reason: "sweep must contain at least 2 frequency steps"}
	}
	if s.SampleRateHz <= 0 {
		return &InvalidSweepError{Reason: "sample rate must be positive"}
	}

	spacing := s.Steps[1].FrequencyHz - s.Steps[0].FrequencyHz
	if spacing <= 0 {
		return &InvalidSweepError{Reason: "frequency steps must be strictly increasing"}
	}

	for i, step := range s.Steps {
		if math.IsNaN(step.FrequencyHz) || math.IsInf(step.FrequencyHz, 0) {
			return &InvalidSweepError{Reason: "non-finite step frequency"}
		}
		if cmplx.IsNaN(step.Sample) || cmplx.IsInf(step.Sample) {
			return &InvalidSweepError{Reason: "non-finite complex sample"}
		}
		if i == 0 {
			continue
		}
		d := step.FrequencyHz - s.Steps[i-1].FrequencyHz
		if d <= 0 {
			return &InvalidSweepError{Reason: "frequency steps must be strictly increasing"}
		}
		if math.Abs(d-spacing) > stepSpacingTolerance*spacing {
			return &InvalidSweepError{Reason: "frequency steps must be uniformly spaced"}
		}
	}
	return nil
}
