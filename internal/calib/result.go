package calib

import "time"

// TestResult is one scored comparison of a measurement against a
// calibration target. The depth and SNR conditions are recorded
// independently so a report can distinguish "too deep/shallow" failures
// from "too weak" ones.
type TestResult struct {
	Target CalibrationTarget `json:"target"`

	// Detected is false when no reflector fell inside the search window;
	// the test is then a scored miss, not an exception.
	Detected bool `json:"detected"`

	MeasuredDepthM float64 `json:"measured_depth_m"`
	MeasuredSNRdB  float64 `json:"measured_snr_db"`

	// MeasuredTimeNs is the two-way travel time of the matched reflector,
	// kept for velocity re-estimation.
	MeasuredTimeNs float64 `json:"measured_time_ns"`

	// DepthErrorM is measured minus nominal depth; DepthErrorPct the same
	// as a percentage of nominal.
	DepthErrorM   float64 `json:"depth_error_m"`
	DepthErrorPct float64 `json:"depth_error_pct"`

	DepthOK bool `json:"depth_ok"`
	SNROK   bool `json:"snr_ok"`
	Passed  bool `json:"passed"`

	// Regressed is set in regression mode when degradation against the
	// baseline exceeds the configured margins.
	Regressed bool `json:"regressed,omitempty"`

	Note string `json:"note,omitempty"`
}

// CalibrationReport is the durable output of one suite run. It is built
// once per run and never mutated after assembly.
type CalibrationReport struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Mode      Mode      `json:"mode"`

	// Results are ordered as the targets were submitted.
	Results []TestResult `json:"results"`

	// OverallPass is the AND of all completed results.
	OverallPass bool `json:"overall_pass"`

	// Incomplete marks a run that aborted before scoring every target;
	// Results then holds only the completed tests.
	Incomplete bool `json:"incomplete"`

	// EstimatedVelocityMpns is the least-squares velocity fit over the
	// passing results, or the configured velocity when fewer than two
	// results passed.
	EstimatedVelocityMpns float64 `json:"estimated_velocity_mpns"`

	// VelocityReestimated records whether the fit actually ran.
	VelocityReestimated bool `json:"velocity_reestimated"`

	// Environment is free-text survey metadata (site, weather, operator).
	Environment string `json:"environment,omitempty"`
}

// PassCount returns the number of passing results.
func (r *CalibrationReport) PassCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}
