package gpr

import "fmt"

// InvalidSweepError reports a frequency sweep that cannot be reconstructed:
// too short, non-uniform step spacing, or non-finite samples. Sweeps are
// never silently coerced into a usable shape.
type InvalidSweepError struct {
	Reason string
}

func (e *InvalidSweepError) Error() string {
	return fmt.Sprintf("invalid sweep: %s", e.Reason)
}

// InconsistentDepthAxisError reports an attempt to append an A-scan whose
// depth axis does not match the axis already established by a radargram.
type InconsistentDepthAxisError struct {
	WantBins int
	GotBins  int
	Detail   string
}

func (e *InconsistentDepthAxisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("inconsistent depth axis: %s", e.Detail)
	}
	return fmt.Sprintf("inconsistent depth axis: radargram has %d bins, a-scan has %d", e.WantBins, e.GotBins)
}

// AssemblerFinalizedError reports an Append on an assembler whose radargram
// has already been finalized.
type AssemblerFinalizedError struct{}

func (e *AssemblerFinalizedError) Error() string {
	return "radargram assembler already finalized"
}

// NonMonotonicDistanceError reports a survey-geometry violation: an A-scan
// appended at a distance behind the previous trace while the assembler is
// not configured for multi-pass surveys.
type NonMonotonicDistanceError struct {
	Prev float64
	Got  float64
}

func (e *NonMonotonicDistanceError) Error() string {
	return fmt.Sprintf("non-monotonic survey distance: %.3fm after %.3fm", e.Got, e.Prev)
}
