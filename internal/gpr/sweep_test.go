package gpr

import (
	"errors"
	"math"
	"testing"
)

func uniformSweep(startHz, spacingHz float64, n int) *FrequencySweep {
	steps := make([]FrequencyStep, n)
	for i := range steps {
		steps[i] = FrequencyStep{FrequencyHz: startHz + float64(i)*spacingHz, Sample: complex(1, 0)}
	}
	return &FrequencySweep{Steps: steps, SampleRateHz: 10e6}
}

func TestSweepValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FrequencySweep)
		wantErr bool
	}{
		{
			name:   "valid sweep",
			mutate: func(s *FrequencySweep) {},
		},
		{
			name: "single step",
			mutate: func(s *FrequencySweep) {
				s.Steps = s.Steps[:1]
			},
			wantErr: true,
		},
		{
			name: "zero sample rate",
			mutate: func(s *FrequencySweep) {
				s.SampleRateHz = 0
			},
			wantErr: true,
		},
		{
			name: "decreasing frequencies",
			mutate: func(s *FrequencySweep) {
				s.Steps[0].FrequencyHz, s.Steps[1].FrequencyHz = s.Steps[1].FrequencyHz, s.Steps[0].FrequencyHz
			},
			wantErr: true,
		},
		{
			name: "duplicate frequency",
			mutate: func(s *FrequencySweep) {
				s.Steps[3].FrequencyHz = s.Steps[2].FrequencyHz
			},
			wantErr: true,
		},
		{
			name: "non-uniform spacing",
			mutate: func(s *FrequencySweep) {
				s.Steps[5].FrequencyHz += 1e5
			},
			wantErr: true,
		},
		{
			name: "non-finite sample",
			mutate: func(s *FrequencySweep) {
				s.Steps[4].Sample = complex(math.NaN(), 0)
			},
			wantErr: true,
		},
		{
			name: "non-finite frequency",
			mutate: func(s *FrequencySweep) {
				s.Steps[0].FrequencyHz = math.Inf(1)
				// keep later spacing checks from masking the finite check
				for i := 1; i < len(s.Steps); i++ {
					s.Steps[i].FrequencyHz = math.Inf(1)
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sweep := uniformSweep(400e6, 2e6, 10)
			tt.mutate(sweep)
			err := sweep.Validate()
			if tt.wantErr {
				var invalid *InvalidSweepError
				if !errors.As(err, &invalid) {
					t.Fatalf("Validate() = %v, want *InvalidSweepError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestSweepSpacingAndBandwidth(t *testing.T) {
	sweep := uniformSweep(400e6, 2e6, 51)
	if got := sweep.StepSpacingHz(); got != 2e6 {
		t.Errorf("StepSpacingHz() = %g, want 2e6", got)
	}
	if got := sweep.BandwidthHz(); got != 100e6 {
		t.Errorf("BandwidthHz() = %g, want 100e6", got)
	}
	if got := sweep.NumSteps(); got != 51 {
		t.Errorf("NumSteps() = %d, want 51", got)
	}

	short := &FrequencySweep{}
	if got := short.StepSpacingHz(); got != 0 {
		t.Errorf("empty StepSpacingHz() = %g, want 0", got)
	}
	if got := short.BandwidthHz(); got != 0 {
		t.Errorf("empty BandwidthHz() = %g, want 0", got)
	}
}

func TestSweepSpacingTolerance(t *testing.T) {
	// Rounding-level jitter in synthesised frequency lists must pass.
	sweep := uniformSweep(400e6, 2e6, 10)
	sweep.Steps[5].FrequencyHz += 0.5 // well inside relative tolerance
	if err := sweep.Validate(); err != nil {
		t.Fatalf("Validate() rejected rounding-level jitter: %v", err)
	}
}
