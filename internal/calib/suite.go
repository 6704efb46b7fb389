package calib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/subsurface.report/internal/acquire"
	"github.com/banshee-data/subsurface.report/internal/gpr"
)

// Mode selects how much of the target set a suite run covers.
type Mode string

const (
	// ModeQuick runs a subset of targets with a short dwell.
	ModeQuick Mode = "quick"
	// ModeFull runs every target with the full dwell.
	ModeFull Mode = "full"
	// ModeRegression is a full run plus comparison against a baseline
	// report.
	ModeRegression Mode = "regression"
)

// State is the suite's position in its run lifecycle.
type State string

const (
	StateIdle          State = "idle"
	StateConfiguring   State = "configuring"
	StateRunningTarget State = "running_target"
	StateScoring       State = "scoring"
	StateAggregating   State = "aggregating"
	StateReporting     State = "reporting"
	StateDone          State = "done"
	StateAborted       State = "aborted"
)

// Suite tuning defaults.
const (
	defaultQuickDwell       = 20 * time.Millisecond
	defaultFullDwell        = 100 * time.Millisecond
	defaultQuickTargetCount = 2
	defaultSweepsPerTarget  = 4
	defaultSearchWindow     = 2.0 // multiples of the target tolerance
	defaultAcquireRetries   = 1
)

// Config describes one calibration suite run.
type Config struct {
	// Targets is the ordered reference set; empty selects DefaultTargets.
	Targets []CalibrationTarget

	// Mode is quick, full, or regression.
	Mode Mode

	// Params is the processing configuration shared by every target.
	Params gpr.ProcessingParams

	// Baseline is the stored report diffed against in regression mode.
	Baseline *CalibrationReport

	// QuickDwell and FullDwell are per-step acquisition times for the
	// respective modes. Zero selects the defaults.
	QuickDwell time.Duration
	FullDwell  time.Duration

	// QuickTargetCount limits how many targets a quick run covers.
	QuickTargetCount int

	// SweepsPerTarget is how many sweeps are stacked per target.
	SweepsPerTarget int

	// SearchWindowFactor bounds the candidate search, in multiples of the
	// target tolerance. Zero selects the default of 2.
	SearchWindowFactor float64

	// AcquireRetries is how many times a recoverable acquisition failure
	// is retried before the target is scored as a miss.
	AcquireRetries int

	// RegressionDepthMarginFrac and RegressionSNRMarginDB tune the
	// regression-flag margins. Zero selects the defaults.
	RegressionDepthMarginFrac float64
	RegressionSNRMarginDB     float64

	// Environment is free-text metadata copied into the report.
	Environment string
}

// Suite orchestrates acquisition-processing-scoring cycles against the
// reference targets. Targets are scored in submitted order; the suite
// checks for cancellation between targets and on abort proceeds directly
// to reporting with the partial result set.
type Suite struct {
	acquirer acquire.Acquirer
	cfg      Config

	mu      sync.RWMutex
	state   State
	current int
	results []TestResult
}

// NewSuite validates the configuration and returns an idle suite.
func NewSuite(acquirer acquire.Acquirer, cfg Config) (*Suite, error) {
	if acquirer == nil {
		return nil, errors.New("calib: acquirer is required")
	}
	switch cfg.Mode {
	case ModeQuick, ModeFull, ModeRegression:
	default:
		return nil, fmt.Errorf("calib: unknown mode %q", cfg.Mode)
	}
	if cfg.Mode == ModeRegression && cfg.Baseline == nil {
		return nil, errors.New("calib: regression mode requires a baseline report")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("calib: invalid processing params: %w", err)
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}
	for i, t := range cfg.Targets {
		if t.NominalDepthM <= 0 || t.ToleranceM <= 0 {
			return nil, fmt.Errorf("calib: target %d (%s) has invalid depth or tolerance", i, t.Label)
		}
	}
	if cfg.QuickDwell == 0 {
		cfg.QuickDwell = defaultQuickDwell
	}
	if cfg.FullDwell == 0 {
		cfg.FullDwell = defaultFullDwell
	}
	if cfg.QuickTargetCount == 0 {
		cfg.QuickTargetCount = defaultQuickTargetCount
	}
	if cfg.SweepsPerTarget == 0 {
		cfg.SweepsPerTarget = defaultSweepsPerTarget
	}
	if cfg.SearchWindowFactor == 0 {
		cfg.SearchWindowFactor = defaultSearchWindow
	}
	if cfg.AcquireRetries == 0 {
		cfg.AcquireRetries = defaultAcquireRetries
	}

	return &Suite{
		acquirer: acquirer,
		cfg:      cfg,
		state:    StateIdle,
	}, nil
}

// State returns the suite's current lifecycle state.
func (s *Suite) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Results returns a copy of the results scored so far.
func (s *Suite) Results() []TestResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TestResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Suite) setState(st State, current int) {
	s.mu.Lock()
	s.state = st
	s.current = current
	s.mu.Unlock()
}

func (s *Suite) appendResult(r TestResult) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

// Run executes the configured calibration cycle and always returns a
// report, even when the run aborts: the report is then marked incomplete
// and covers the completed targets only. The returned error is non-nil
// only for abort conditions; scored misses are reported, not raised.
func (s *Suite) Run(ctx context.Context) (*CalibrationReport, error) {
	s.setState(StateConfiguring, 0)

	targets := s.cfg.Targets
	dwell := s.cfg.FullDwell
	if s.cfg.Mode == ModeQuick {
		if len(targets) > s.cfg.QuickTargetCount {
			targets = targets[:s.cfg.QuickTargetCount]
		}
		dwell = s.cfg.QuickDwell
	}

	log.Printf("calib: starting %s run over %d targets", s.cfg.Mode, len(targets))

	var abortErr error
	for i, target := range targets {
		// Cooperative cancellation between target iterations: work
		// already scored is kept.
		if err := ctx.Err(); err != nil {
			abortErr = err
			break
		}

		s.setState(StateRunningTarget, i)
		sweeps, err := s.acquireWithRetry(ctx, target, dwell)
		if err != nil {
			var af *acquire.AcquisitionFailure
			if errors.As(err, &af) && !af.Unrecoverable {
				log.Printf("calib: target %q acquisition failed, scoring as miss: %v", target.Label, err)
				s.appendResult(missResult(target, "acquisition failed: "+err.Error()))
				continue
			}
			log.Printf("calib: unrecoverable acquisition failure on target %q: %v", target.Label, err)
			abortErr = err
			break
		}

		s.setState(StateScoring, i)
		s.appendResult(s.scoreTarget(target, sweeps))
	}

	s.setState(StateAggregating, len(targets))
	results := s.Results()

	velocity := s.cfg.Params.VelocityMpns
	estimated, ok := estimateVelocity(results)
	if ok {
		velocity = estimated
	}

	if s.cfg.Mode == ModeRegression {
		applyRegression(results, s.cfg.Baseline, s.cfg.RegressionDepthMarginFrac, s.cfg.RegressionSNRMarginDB)
	}

	s.setState(StateReporting, len(targets))
	overall := len(results) > 0
	for _, r := range results {
		if !r.Passed {
			overall = false
		}
	}

	report := &CalibrationReport{
		RunID:                 uuid.NewString(),
		Timestamp:             time.Now().UTC(),
		Mode:                  s.cfg.Mode,
		Results:               results,
		OverallPass:           overall,
		Incomplete:            abortErr != nil,
		EstimatedVelocityMpns: velocity,
		VelocityReestimated:   ok,
		Environment:           s.cfg.Environment,
	}

	if abortErr != nil {
		s.setState(StateAborted, len(results))
		return report, fmt.Errorf("calibration run aborted after %d of %d targets: %w", len(results), len(targets), abortErr)
	}
	s.setState(StateDone, len(results))
	log.Printf("calib: run %s complete, %d/%d passed", report.RunID, report.PassCount(), len(results))
	return report, nil
}

// acquireWithRetry asks the acquisition collaborator for the target's
// sweeps, retrying recoverable failures.
func (s *Suite) acquireWithRetry(ctx context.Context, target CalibrationTarget, dwell time.Duration) ([]*gpr.FrequencySweep, error) {
	req := acquire.Request{
		TargetLabel:    target.Label,
		ExpectedDepthM: target.NominalDepthM,
		Dwell:          dwell,
		NumSweeps:      s.cfg.SweepsPerTarget,
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.AcquireRetries; attempt++ {
		sweeps, err := s.acquirer.Acquire(ctx, req)
		if err == nil {
			return sweeps, nil
		}
		lastErr = err
		var af *acquire.AcquisitionFailure
		if errors.As(err, &af) && af.Unrecoverable {
			return nil, err
		}
	}
	return nil, lastErr
}

// scoreTarget reconstructs and stacks the acquired sweeps, detects
// reflectors, matches the candidate nearest the nominal depth, and scores
// it against the target's ground truth. Sweep-level failures skip the
// offending sweep with a note rather than aborting the run.
func (s *Suite) scoreTarget(target CalibrationTarget, sweeps []*gpr.FrequencySweep) TestResult {
	var traces []*gpr.AScan
	var skipped int
	for _, sweep := range sweeps {
		ascan, err := gpr.Reconstruct(sweep, s.cfg.Params)
		if err != nil {
			log.Printf("calib: target %q: skipping sweep: %v", target.Label, err)
			skipped++
			continue
		}
		traces = append(traces, ascan)
	}
	if len(traces) == 0 {
		return missResult(target, fmt.Sprintf("all %d sweeps invalid", len(sweeps)))
	}

	stacked, err := gpr.StackAScans(traces)
	if err != nil {
		return missResult(target, "stacking failed: "+err.Error())
	}

	detected := gpr.Detect(stacked, s.cfg.Params.SNRThresholdDB)
	candidate, found := matchTarget(detected, target, s.cfg.SearchWindowFactor)
	if !found {
		note := fmt.Sprintf("no reflector within %.2fm of nominal depth", s.cfg.SearchWindowFactor*target.ToleranceM)
		if skipped > 0 {
			note = fmt.Sprintf("%s (%d sweeps skipped)", note, skipped)
		}
		return missResult(target, note)
	}

	errM := candidate.DepthM - target.NominalDepthM
	result := TestResult{
		Target:         target,
		Detected:       true,
		MeasuredDepthM: candidate.DepthM,
		MeasuredSNRdB:  candidate.SNRdB,
		MeasuredTimeNs: candidate.TimeNs,
		DepthErrorM:    errM,
		DepthErrorPct:  errM / target.NominalDepthM * 100,
		DepthOK:        math.Abs(errM) <= target.ToleranceM,
		SNROK:          candidate.SNRdB >= target.MinSNRdB,
	}
	result.Passed = result.DepthOK && result.SNROK
	if !result.DepthOK {
		result.Note = appendNote(result.Note, "depth error exceeds tolerance")
	}
	if !result.SNROK {
		result.Note = appendNote(result.Note, "SNR below minimum")
	}
	if skipped > 0 {
		result.Note = appendNote(result.Note, fmt.Sprintf("%d sweeps skipped", skipped))
	}
	return result
}

// matchTarget selects the detected reflector nearest the nominal depth
// within the search window. Near-equal distances tie-break toward the
// shallower bin, which keeps selection stable for detector output ordered
// by depth.
func matchTarget(detected []gpr.Target, target CalibrationTarget, windowFactor float64) (gpr.Target, bool) {
	window := windowFactor * target.ToleranceM
	best := gpr.Target{}
	bestDist := math.Inf(1)
	found := false
	for _, d := range detected {
		dist := math.Abs(d.DepthM - target.NominalDepthM)
		if dist > window {
			continue
		}
		if dist < bestDist {
			best = d
			bestDist = dist
			found = true
		}
	}
	return best, found
}

// missResult builds the scored-miss TestResult for a target that produced
// no usable measurement.
func missResult(target CalibrationTarget, note string) TestResult {
	return TestResult{
		Target:        target,
		Detected:      false,
		DepthErrorM:   target.NominalDepthM,
		DepthErrorPct: 100,
		Note:          note,
	}
}
