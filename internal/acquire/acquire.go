// Package acquire defines the narrow contract to the acquisition hardware
// and provides a deterministic simulated implementation for testing and
// dry runs.
package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/subsurface.report/internal/gpr"
)

// Request asks the acquisition collaborator for sweeps over a known
// location, typically one calibration target.
type Request struct {
	// TargetLabel identifies the reference target being surveyed.
	TargetLabel string `json:"target_label"`

	// ExpectedDepthM hints where the reflector should appear; hardware
	// implementations may use it to pick an antenna position.
	ExpectedDepthM float64 `json:"expected_depth_m"`

	// Dwell is the acquisition time spent at each frequency step.
	Dwell time.Duration `json:"dwell"`

	// NumSweeps is how many sweeps to capture for stacking. Zero means 1.
	NumSweeps int `json:"num_sweeps"`
}

// Acquirer supplies frequency sweeps for a requested location. This is the
// single interaction point between the numeric core and the radar hardware.
// Implementations own their timeouts; failures surface as
// *AcquisitionFailure.
type Acquirer interface {
	Acquire(ctx context.Context, req Request) ([]*gpr.FrequencySweep, error)
}

// AcquisitionFailure reports that the collaborator could not deliver a
// sweep. Recoverable by retrying or by scoring the affected target as a
// miss; a failure marked Unrecoverable aborts the suite run.
type AcquisitionFailure struct {
	Target        string
	Unrecoverable bool
	Err           error
}

func (e *AcquisitionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("acquisition failed for target %q: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("acquisition failed for target %q", e.Target)
}

func (e *AcquisitionFailure) Unwrap() error { return e.Err }
