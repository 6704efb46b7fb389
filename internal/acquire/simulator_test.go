package acquire

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSimulatorProducesValidSweeps(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig(), []SimReflector{{DepthM: 1.0, SNRdB: 20}})

	sweeps, err := sim.Acquire(context.Background(), Request{TargetLabel: "mid", NumSweeps: 3})
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if len(sweeps) != 3 {
		t.Fatalf("got %d sweeps, want 3", len(sweeps))
	}
	for i, s := range sweeps {
		if err := s.Validate(); err != nil {
			t.Errorf("sweep %d invalid: %v", i, err)
		}
		if s.NumSteps() != 50 {
			t.Errorf("sweep %d has %d steps, want 50", i, s.NumSteps())
		}
	}
}

func TestSimulatorDefaultsToOneSweep(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig(), nil)
	sweeps, err := sim.Acquire(context.Background(), Request{TargetLabel: "any"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sweeps) != 1 {
		t.Errorf("got %d sweeps, want 1", len(sweeps))
	}
}

func TestSimulatorDeterministicSeed(t *testing.T) {
	reflectors := []SimReflector{{DepthM: 1.5, SNRdB: 18}}
	a := NewSimulator(DefaultSimulatorConfig(), reflectors)
	b := NewSimulator(DefaultSimulatorConfig(), reflectors)

	sa, err := a.Acquire(context.Background(), Request{TargetLabel: "t", NumSweeps: 2})
	if err != nil {
		t.Fatal(err)
	}
	sb, err := b.Acquire(context.Background(), Request{TargetLabel: "t", NumSweeps: 2})
	if err != nil {
		t.Fatal(err)
	}

	for i := range sa {
		if diff := cmp.Diff(sa[i].Steps, sb[i].Steps); diff != "" {
			t.Errorf("sweep %d differs between equal seeds (-a +b):\n%s", i, diff)
		}
	}

	c := NewSimulator(SimulatorConfig{
		FreqStartHz: 400e6, FreqStopHz: 500e6, NumSteps: 50,
		SampleRateHz: 10e6, VelocityMpns: 0.1, NoiseLevel: 0.02, Seed: 99,
	}, reflectors)
	sc, err := c.Acquire(context.Background(), Request{TargetLabel: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Equal(sa[0].Steps, sc[0].Steps) {
		t.Error("different seeds produced identical noise")
	}
}

func TestSimulatorInjectedFailure(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig(), nil)
	sim.FailTargets = map[string]bool{"broken": true}

	_, err := sim.Acquire(context.Background(), Request{TargetLabel: "broken"})
	var fail *AcquisitionFailure
	if !errors.As(err, &fail) {
		t.Fatalf("Acquire() = %v, want *AcquisitionFailure", err)
	}
	if fail.Unrecoverable {
		t.Error("injected failure should be recoverable by default")
	}
	if fail.Target != "broken" {
		t.Errorf("failure target = %q, want broken", fail.Target)
	}

	sim.FailUnrecoverable = true
	_, err = sim.Acquire(context.Background(), Request{TargetLabel: "broken"})
	if !errors.As(err, &fail) || !fail.Unrecoverable {
		t.Errorf("Acquire() = %v, want unrecoverable failure", err)
	}

	// Other targets are unaffected.
	if _, err := sim.Acquire(context.Background(), Request{TargetLabel: "fine"}); err != nil {
		t.Errorf("Acquire(fine) error: %v", err)
	}
}

func TestSimulatorCancelledContext(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Acquire(ctx, Request{TargetLabel: "t"})
	var fail *AcquisitionFailure
	if !errors.As(err, &fail) {
		t.Fatalf("Acquire() = %v, want *AcquisitionFailure", err)
	}
	if !fail.Unrecoverable {
		t.Error("cancellation must be unrecoverable")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("failure should wrap context.Canceled")
	}
}
