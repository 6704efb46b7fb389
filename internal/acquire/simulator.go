package acquire

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"
	"time"

	"github.com/banshee-data/subsurface.report/internal/gpr"
	"github.com/banshee-data/subsurface.report/internal/units"
)

// SimReflector is one buried reflector the simulator synthesises a return
// for.
type SimReflector struct {
	DepthM float64
	SNRdB  float64
}

// SimulatorConfig describes the synthetic SFCW front end. Defaults match
// the 400-500 MHz, 50-step antenna configuration.
type SimulatorConfig struct {
	FreqStartHz  float64
	FreqStopHz   float64
	NumSteps     int
	SampleRateHz float64

	// VelocityMpns is the subsurface velocity used to place reflector
	// returns in time.
	VelocityMpns float64

	// NoiseLevel is the standard deviation of the additive complex noise,
	// relative to a unit-amplitude return.
	NoiseLevel float64

	// Seed makes sweep synthesis reproducible. Two simulators with the
	// same seed and config produce identical sweeps.
	Seed int64
}

// DefaultSimulatorConfig returns the shipped front-end layout.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		FreqStartHz:  400e6,
		FreqStopHz:   500e6,
		NumSteps:     50,
		SampleRateHz: 10e6,
		VelocityMpns: gpr.DefaultVelocityMpns,
		NoiseLevel:   0.02,
		Seed:         1,
	}
}

// Simulator is an Acquirer that synthesises sweeps for a configured set of
// reflectors instead of driving hardware. It mirrors the behaviour of a
// calibration pit: each request returns echoes from every reflector, with
// the requested target's return dominant.
type Simulator struct {
	cfg        SimulatorConfig
	reflectors []SimReflector
	rng        *rand.Rand

	// FailTargets lists target labels whose acquisition should fail, for
	// exercising the suite's failure paths.
	FailTargets map[string]bool

	// FailUnrecoverable marks injected failures as unrecoverable.
	FailUnrecoverable bool
}

// NewSimulator creates a simulator for the given reflector set.
func NewSimulator(cfg SimulatorConfig, reflectors []SimReflector) *Simulator {
	return &Simulator{
		cfg:        cfg,
		reflectors: reflectors,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Acquire synthesises the requested sweeps. Injected failures surface as
// *AcquisitionFailure, like a hardware timeout would.
func (s *Simulator) Acquire(ctx context.Context, req Request) ([]*gpr.FrequencySweep, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AcquisitionFailure{Target: req.TargetLabel, Unrecoverable: true, Err: err}
	}
	if s.FailTargets[req.TargetLabel] {
		return nil, &AcquisitionFailure{
			Target:        req.TargetLabel,
			Unrecoverable: s.FailUnrecoverable,
			Err:           context.DeadlineExceeded,
		}
	}

	n := req.NumSweeps
	if n <= 0 {
		n = 1
	}
	sweeps := make([]*gpr.FrequencySweep, n)
	for i := range sweeps {
		sweeps[i] = s.synthesiseSweep()
	}
	return sweeps, nil
}

// synthesiseSweep builds one stepped sweep: for each reflector a
// linear-phase return at its round-trip delay, plus additive complex noise.
func (s *Simulator) synthesiseSweep() *gpr.FrequencySweep {
	cfg := s.cfg
	steps := make([]gpr.FrequencyStep, cfg.NumSteps)
	spacing := (cfg.FreqStopHz - cfg.FreqStartHz) / float64(cfg.NumSteps-1)

	for i := range steps {
		freq := cfg.FreqStartHz + float64(i)*spacing
		var sample complex128
		for _, r := range s.reflectors {
			delaySec := units.TwoWayTimeNs(r.DepthM, cfg.VelocityMpns) * 1e-9
			amp := math.Pow(10, r.SNRdB/20) * cfg.NoiseLevel
			sample += complex(amp, 0) * cmplx.Exp(complex(0, -2*math.Pi*freq*delaySec))
		}
		sample += complex(s.rng.NormFloat64()*cfg.NoiseLevel, s.rng.NormFloat64()*cfg.NoiseLevel)
		steps[i] = gpr.FrequencyStep{FrequencyHz: freq, Sample: sample}
	}

	return &gpr.FrequencySweep{
		Steps:        steps,
		SampleRateHz: cfg.SampleRateHz,
		CapturedAt:   time.Now().UTC(),
	}
}
