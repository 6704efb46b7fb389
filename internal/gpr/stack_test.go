package gpr

import (
	"errors"
	"math"
	"testing"
)

func TestStackAScansAverages(t *testing.T) {
	a := axisScan(100, 0.1, 0.1)
	b := axisScan(100, 0.1, 0.1)
	for i := range a.Amplitude {
		a.Amplitude[i] = 0.2
		b.Amplitude[i] = 0.4
	}

	stacked, err := StackAScans([]*AScan{a, b})
	if err != nil {
		t.Fatalf("StackAScans() error: %v", err)
	}
	for i, v := range stacked.Amplitude {
		if math.Abs(v-0.3) > 1e-12 {
			t.Fatalf("stacked[%d] = %v, want 0.3", i, v)
		}
	}
	// Inputs stay untouched.
	if a.Amplitude[0] != 0.2 || b.Amplitude[0] != 0.4 {
		t.Error("StackAScans modified its inputs")
	}
	if stacked.VelocityMpns != a.VelocityMpns || stacked.BinWidthM != a.BinWidthM {
		t.Error("stacked trace lost the shared depth axis")
	}
}

func TestStackAScansSingleTrace(t *testing.T) {
	a := axisScan(50, 0.1, 0.1)
	stacked, err := StackAScans([]*AScan{a})
	if err != nil {
		t.Fatalf("StackAScans() error: %v", err)
	}
	if stacked != a {
		t.Error("single-trace stack should return the input trace")
	}
}

func TestStackAScansEmpty(t *testing.T) {
	_, err := StackAScans(nil)
	var invalid *InvalidSweepError
	if !errors.As(err, &invalid) {
		t.Fatalf("StackAScans(nil) = %v, want *InvalidSweepError", err)
	}
}

func TestStackAScansAxisMismatch(t *testing.T) {
	_, err := StackAScans([]*AScan{axisScan(100, 0.1, 0.1), axisScan(80, 0.1, 0.1)})
	var mismatch *InconsistentDepthAxisError
	if !errors.As(err, &mismatch) {
		t.Fatalf("StackAScans() = %v, want *InconsistentDepthAxisError", err)
	}
}
