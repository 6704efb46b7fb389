package gpr

// StackAScans averages several A-scans sharing a depth axis into one trace.
// Stacking coherent repeats suppresses uncorrelated noise before detection.
// The input traces are not modified.
func StackAScans(traces []*AScan) (*AScan, error) {
	if len(traces) == 0 {
		return nil, &InvalidSweepError{Reason: "no traces to stack"}
	}
	first := traces[0]
	for _, t := range traces[1:] {
		if !first.sameDepthAxis(t) {
			return nil, &InconsistentDepthAxisError{WantBins: first.NumBins(), GotBins: t.NumBins()}
		}
	}
	if len(traces) == 1 {
		return first, nil
	}

	n := first.NumBins()
	amp := make([]float64, n)
	for _, t := range traces {
		for i, v := range t.Amplitude {
			amp[i] += v
		}
	}
	scale := 1 / float64(len(traces))
	for i := range amp {
		amp[i] *= scale
	}

	return &AScan{
		Amplitude:    amp,
		DepthAxis:    first.DepthAxis,
		TimeStepNs:   first.TimeStepNs,
		BinWidthM:    first.BinWidthM,
		VelocityMpns: first.VelocityMpns,
		SNRdB:        estimateTraceSNR(amp),
		CapturedAt:   first.CapturedAt,
		Location:     first.Location,
		NumSteps:     first.NumSteps,
	}, nil
}
