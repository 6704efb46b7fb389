package calib

import (
	"strings"
	"testing"
)

func baselineReport() *CalibrationReport {
	return &CalibrationReport{
		RunID: "baseline-run",
		Mode:  ModeFull,
		Results: []TestResult{
			{
				Target:         CalibrationTarget{Label: "one", NominalDepthM: 1.0, ToleranceM: 0.08, MinSNRdB: 15},
				Detected:       true,
				MeasuredDepthM: 1.01,
				MeasuredSNRdB:  30,
				DepthErrorM:    0.01,
				Passed:         true,
			},
			{
				Target:         CalibrationTarget{Label: "two", NominalDepthM: 2.0, ToleranceM: 0.15, MinSNRdB: 12},
				Detected:       true,
				MeasuredDepthM: 2.02,
				MeasuredSNRdB:  25,
				DepthErrorM:    0.02,
				Passed:         true,
			},
		},
		OverallPass: true,
	}
}

func TestApplyRegressionUnchangedResults(t *testing.T) {
	baseline := baselineReport()
	results := make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)

	applyRegression(results, baseline, 0, 0)

	for _, r := range results {
		if r.Regressed {
			t.Errorf("target %s flagged with identical measurements: %s", r.Target.Label, r.Note)
		}
	}
}

func TestApplyRegressionDepthErrorGrowth(t *testing.T) {
	baseline := baselineReport()
	results := make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)

	// Error growth of 0.06m against a 0.08m tolerance exceeds the default
	// margin of half the tolerance.
	results[0].MeasuredDepthM = 1.07
	results[0].DepthErrorM = 0.07

	applyRegression(results, baseline, 0, 0)

	if !results[0].Regressed {
		t.Error("depth-error growth beyond margin not flagged")
	}
	if !strings.Contains(results[0].Note, "regressed against baseline baseline-run") {
		t.Errorf("note = %q, want baseline reference", results[0].Note)
	}
	if results[1].Regressed {
		t.Error("unchanged target flagged")
	}
}

func TestApplyRegressionWithinMargin(t *testing.T) {
	baseline := baselineReport()
	results := make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)

	// Growth from 0.02m to 0.035m stays inside half of the 0.15m tolerance
	// and short of doubling.
	results[1].DepthErrorM = 0.035
	applyRegression(results, baseline, 0, 0)

	if results[1].Regressed {
		t.Error("growth inside margin flagged")
	}
}

func TestApplyRegressionDoubledDepthError(t *testing.T) {
	baseline := baselineReport()
	baseline.Results[0].DepthErrorM = 0.03
	results := make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)

	// 0.03m to 0.06m stays inside the half-tolerance margin of the 0.08m
	// target, but a doubled error is a regression regardless.
	results[0].MeasuredDepthM = 1.06
	results[0].DepthErrorM = 0.06
	applyRegression(results, baseline, 0, 0)

	if !results[0].Regressed {
		t.Error("doubled depth error not flagged")
	}

	// Doubling below the noise floor is jitter, not degradation.
	baseline.Results[0].DepthErrorM = 0.004
	results = make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)
	results[0].DepthErrorM = 0.008
	applyRegression(results, baseline, 0, 0)
	if results[0].Regressed {
		t.Error("sub-centimetre doubling flagged")
	}
}

func TestApplyRegressionSNRDrop(t *testing.T) {
	baseline := baselineReport()
	results := make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)

	results[1].MeasuredSNRdB = 20 // 5 dB drop against a 3 dB margin
	applyRegression(results, baseline, 0, 0)

	if !results[1].Regressed {
		t.Error("SNR drop beyond margin not flagged")
	}

	// A drop inside the margin is fine.
	results = make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)
	results[1].MeasuredSNRdB = 23
	applyRegression(results, baseline, 0, 0)
	if results[1].Regressed {
		t.Error("SNR drop inside margin flagged")
	}
}

func TestApplyRegressionLostDetection(t *testing.T) {
	baseline := baselineReport()
	results := make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)

	results[0] = missResult(results[0].Target, "no reflector")
	applyRegression(results, baseline, 0, 0)

	if !results[0].Regressed {
		t.Error("lost detection not flagged")
	}
}

func TestApplyRegressionMissingBaselineTarget(t *testing.T) {
	baseline := baselineReport()
	results := []TestResult{
		{
			Target:   CalibrationTarget{Label: "new-target", NominalDepthM: 3.0, ToleranceM: 0.2},
			Detected: true,
			Passed:   true,
		},
	}

	applyRegression(results, baseline, 0, 0)

	if results[0].Regressed {
		t.Error("target absent from baseline must not be flagged")
	}
	if !strings.Contains(results[0].Note, "no baseline result") {
		t.Errorf("note = %q, want missing-baseline note", results[0].Note)
	}
}

func TestApplyRegressionCustomMargins(t *testing.T) {
	baseline := baselineReport()
	results := make([]TestResult, len(baseline.Results))
	copy(results, baseline.Results)

	results[1].MeasuredSNRdB = 20 // 5 dB drop
	applyRegression(results, baseline, 0, 10)

	if results[1].Regressed {
		t.Error("drop inside widened margin flagged")
	}
}

func TestApplyRegressionNilBaseline(t *testing.T) {
	results := baselineReport().Results
	applyRegression(results, nil, 0, 0)
	for _, r := range results {
		if r.Regressed {
			t.Error("nil baseline must be a no-op")
		}
	}
}
