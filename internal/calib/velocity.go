package calib

import "gonum.org/v1/gonum/stat"

// estimateVelocity fits depth = velocity * time/2 across the passing
// results by least squares through the origin. The slope of depth against
// half the two-way time is the propagation velocity in m/ns.
//
// Only passing results feed the fit so anomalous misses cannot corrupt the
// estimate. Fewer than two passing results returns ok=false and the fit is
// skipped.
func estimateVelocity(results []TestResult) (velocityMpns float64, ok bool) {
	var halfTimes, depths []float64
	for _, r := range results {
		if !r.Passed || r.MeasuredTimeNs <= 0 {
			continue
		}
		halfTimes = append(halfTimes, r.MeasuredTimeNs/2)
		depths = append(depths, r.MeasuredDepthM)
	}
	if len(depths) < 2 {
		return 0, false
	}

	_, beta := stat.LinearRegression(halfTimes, depths, nil, true)
	return beta, true
}
