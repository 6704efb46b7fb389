package calib

import (
	"math"
	"testing"
)

func passingResult(depthM, velocityMpns float64) TestResult {
	return TestResult{
		Detected:       true,
		Passed:         true,
		MeasuredDepthM: depthM,
		MeasuredTimeNs: 2 * depthM / velocityMpns,
	}
}

func TestEstimateVelocityExactFit(t *testing.T) {
	results := []TestResult{
		passingResult(0.5, 0.1),
		passingResult(1.0, 0.1),
		passingResult(2.0, 0.1),
	}
	v, ok := estimateVelocity(results)
	if !ok {
		t.Fatal("estimateVelocity() = !ok, want fit")
	}
	if math.Abs(v-0.1) > 1e-12 {
		t.Errorf("velocity = %v, want 0.1", v)
	}
}

func TestEstimateVelocityIgnoresFailures(t *testing.T) {
	results := []TestResult{
		passingResult(0.5, 0.1),
		passingResult(2.0, 0.1),
		{
			// A wild miss must not pull the fit.
			Detected:       true,
			Passed:         false,
			MeasuredDepthM: 5.0,
			MeasuredTimeNs: 10,
		},
	}
	v, ok := estimateVelocity(results)
	if !ok {
		t.Fatal("estimateVelocity() = !ok, want fit over the passing pair")
	}
	if math.Abs(v-0.1) > 1e-12 {
		t.Errorf("velocity = %v, want 0.1", v)
	}
}

func TestEstimateVelocityNeedsTwoPoints(t *testing.T) {
	if _, ok := estimateVelocity([]TestResult{passingResult(1.0, 0.1)}); ok {
		t.Error("one passing result must not produce a fit")
	}
	if _, ok := estimateVelocity(nil); ok {
		t.Error("no results must not produce a fit")
	}
	// Passing results without a travel time cannot feed the fit either.
	noTime := []TestResult{
		{Passed: true, MeasuredDepthM: 1.0},
		{Passed: true, MeasuredDepthM: 2.0},
	}
	if _, ok := estimateVelocity(noTime); ok {
		t.Error("results without travel times must not produce a fit")
	}
}

func TestEstimateVelocityNoisyMeasurements(t *testing.T) {
	// Small depth perturbations around a 0.12 m/ns medium.
	results := []TestResult{
		{Passed: true, MeasuredDepthM: 0.51, MeasuredTimeNs: 2 * 0.5 / 0.12},
		{Passed: true, MeasuredDepthM: 0.99, MeasuredTimeNs: 2 * 1.0 / 0.12},
		{Passed: true, MeasuredDepthM: 2.02, MeasuredTimeNs: 2 * 2.0 / 0.12},
	}
	v, ok := estimateVelocity(results)
	if !ok {
		t.Fatal("estimateVelocity() = !ok, want fit")
	}
	if math.Abs(v-0.12) > 0.002 {
		t.Errorf("velocity = %v, want 0.12 within 0.002", v)
	}
}
