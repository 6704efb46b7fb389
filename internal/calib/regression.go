package calib

import "fmt"

// Regression margin defaults. Depth degradation is measured two ways: as
// growth of the absolute depth error relative to the target tolerance, and
// as the error at least doubling above a small noise floor. SNR degradation
// is a straight dB drop.
const (
	DefaultRegressionDepthMarginFrac = 0.5
	DefaultRegressionSNRMarginDB     = 3.0

	// regressionDepthNoiseFloorM keeps the doubling criterion from firing
	// on sub-centimetre jitter around a near-zero baseline error.
	regressionDepthNoiseFloorM = 0.01
)

// applyRegression compares each result against the matching baseline result
// (by target label) and sets the Regressed flag where measured degradation
// exceeds the margins. Targets absent from the baseline are left unflagged
// with a note.
func applyRegression(results []TestResult, baseline *CalibrationReport, depthMarginFrac, snrMarginDB float64) {
	if baseline == nil {
		return
	}
	if depthMarginFrac <= 0 {
		depthMarginFrac = DefaultRegressionDepthMarginFrac
	}
	if snrMarginDB <= 0 {
		snrMarginDB = DefaultRegressionSNRMarginDB
	}

	base := make(map[string]TestResult, len(baseline.Results))
	for _, r := range baseline.Results {
		base[r.Target.Label] = r
	}

	for i := range results {
		r := &results[i]
		b, found := base[r.Target.Label]
		if !found {
			r.Note = appendNote(r.Note, "no baseline result for target")
			continue
		}

		depthMargin := depthMarginFrac * r.Target.ToleranceM
		cur, prev := absf(r.DepthErrorM), absf(b.DepthErrorM)
		depthWorse := cur-prev > depthMargin ||
			(cur > regressionDepthNoiseFloorM && cur >= 2*prev && cur > prev)
		snrWorse := b.MeasuredSNRdB-r.MeasuredSNRdB > snrMarginDB
		// A target that used to be detected and no longer is always counts.
		lostDetection := b.Detected && !r.Detected

		if depthWorse || snrWorse || lostDetection {
			r.Regressed = true
			r.Note = appendNote(r.Note, fmt.Sprintf(
				"regressed against baseline %s: depth error %.3fm (was %.3fm), SNR %.1fdB (was %.1fdB)",
				baseline.RunID, absf(r.DepthErrorM), absf(b.DepthErrorM), r.MeasuredSNRdB, b.MeasuredSNRdB))
		}
	}
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
