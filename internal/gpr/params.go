// Package gpr implements the signal-processing core for a stepped-frequency
// (SFCW) ground penetrating radar: range reconstruction from frequency-domain
// sweeps, reflector detection, and radargram assembly.
package gpr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default processing values. These match the 400-500 MHz antenna the system
// ships with and a typical moist-soil propagation velocity.
const (
	DefaultVelocityMpns     = 0.1   // m/ns
	DefaultBandpassLowHz    = 400e6 // Hz
	DefaultBandpassHighHz   = 500e6 // Hz
	DefaultSNRThresholdDB   = 10.0  // dB
	DefaultAGCWindowFrac    = 0.1   // fraction of trace length
	DefaultPaddingFactor    = 4     // zero-padding multiple for the inverse DFT
	DefaultTimeZeroOffsetNs = 0.0   // ns
)

// ProcessingParams holds the immutable per-run processing configuration.
// Construct with NewProcessingParams (or LoadProcessingParams) so that
// invalid combinations are rejected up front rather than at first use.
type ProcessingParams struct {
	// VelocityMpns is the subsurface propagation velocity in meters per
	// nanosecond. Converts two-way travel time to depth.
	VelocityMpns float64 `json:"velocity_mpns"`

	// TimeZeroOffsetNs shifts the trace origin to the air-ground interface,
	// compensating for the antenna feedline and direct-coupling delay.
	TimeZeroOffsetNs float64 `json:"time_zero_offset_ns"`

	// SNRThresholdDB is the minimum signal-to-noise ratio for a detection
	// to be reported.
	SNRThresholdDB float64 `json:"snr_threshold_db"`

	// ApplyAGC enables per-trace gain normalisation against a sliding
	// noise-energy estimate.
	ApplyAGC bool `json:"apply_agc"`

	// AGCWindowFrac is the AGC window length as a fraction of the trace
	// length. Zero selects the default.
	AGCWindowFrac float64 `json:"agc_window_frac,omitempty"`

	// BandpassLowHz and BandpassHighHz bound the usable frequency band.
	// Sweep steps outside the band are zeroed before reconstruction.
	BandpassLowHz  float64 `json:"bandpass_low_hz"`
	BandpassHighHz float64 `json:"bandpass_high_hz"`

	// PaddingFactor is the fixed zero-padding multiple applied before the
	// inverse DFT. Larger values refine the depth-bin spacing without
	// adding information. Must be a power of two.
	PaddingFactor int `json:"padding_factor,omitempty"`
}

// DefaultProcessingParams returns the shipped defaults.
func DefaultProcessingParams() ProcessingParams {
	return ProcessingParams{
		VelocityMpns:     DefaultVelocityMpns,
		TimeZeroOffsetNs: DefaultTimeZeroOffsetNs,
		SNRThresholdDB:   DefaultSNRThresholdDB,
		ApplyAGC:         true,
		AGCWindowFrac:    DefaultAGCWindowFrac,
		BandpassLowHz:    DefaultBandpassLowHz,
		BandpassHighHz:   DefaultBandpassHighHz,
		PaddingFactor:    DefaultPaddingFactor,
	}
}

// NewProcessingParams validates p and returns it with zero-valued optional
// fields replaced by their defaults.
func NewProcessingParams(p ProcessingParams) (ProcessingParams, error) {
	if p.AGCWindowFrac == 0 {
		p.AGCWindowFrac = DefaultAGCWindowFrac
	}
	if p.PaddingFactor == 0 {
		p.PaddingFactor = DefaultPaddingFactor
	}
	if err := p.Validate(); err != nil {
		return ProcessingParams{}, err
	}
	return p, nil
}

// Validate checks the parameter invariants.
func (p ProcessingParams) Validate() error {
	if p.VelocityMpns <= 0 {
		return fmt.Errorf("propagation velocity must be positive, got %f m/ns", p.VelocityMpns)
	}
	if p.BandpassLowHz >= p.BandpassHighHz {
		return fmt.Errorf("bandpass_low_hz (%g) must be below bandpass_high_hz (%g)", p.BandpassLowHz, p.BandpassHighHz)
	}
	if p.BandpassLowHz < 0 {
		return fmt.Errorf("bandpass_low_hz must be non-negative, got %g", p.BandpassLowHz)
	}
	if p.AGCWindowFrac <= 0 || p.AGCWindowFrac > 1 {
		return fmt.Errorf("agc_window_frac must be in (0, 1], got %f", p.AGCWindowFrac)
	}
	if p.PaddingFactor < 1 || p.PaddingFactor&(p.PaddingFactor-1) != 0 {
		return fmt.Errorf("padding_factor must be a power of two, got %d", p.PaddingFactor)
	}
	return nil
}

// LoadProcessingParams loads parameters from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadProcessingParams(path string) (ProcessingParams, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return ProcessingParams{}, fmt.Errorf("params file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return ProcessingParams{}, fmt.Errorf("failed to read params file: %w", err)
	}

	p := DefaultProcessingParams()
	if err := json.Unmarshal(data, &p); err != nil {
		return ProcessingParams{}, fmt.Errorf("failed to parse params JSON: %w", err)
	}
	return NewProcessingParams(p)
}
