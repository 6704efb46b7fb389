package gpr

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
)

// AScan is a single reconstructed depth-domain amplitude trace. It is
// created once per sweep by Reconstruct and never mutated afterwards.
type AScan struct {
	// Amplitude is the envelope amplitude per depth bin.
	Amplitude []float64 `json:"amplitude"`

	// DepthAxis holds the depth in meters for each bin. Monotonically
	// increasing, same length as Amplitude.
	DepthAxis []float64 `json:"depth_axis"`

	// TimeStepNs is the two-way travel-time spacing between bins.
	TimeStepNs float64 `json:"time_step_ns"`

	// BinWidthM is the depth spacing between bins.
	BinWidthM float64 `json:"bin_width_m"`

	// VelocityMpns is the propagation velocity the depth axis was built
	// with. Radargram assembly refuses to mix velocities.
	VelocityMpns float64 `json:"velocity_mpns"`

	// SNRdB is the trace-level signal-to-noise estimate: peak amplitude
	// against the RMS of the trailing noise region.
	SNRdB float64 `json:"snr_db"`

	// Source capture metadata carried through from the sweep.
	CapturedAt time.Time    `json:"captured_at"`
	Location   *Geolocation `json:"location,omitempty"`
	NumSteps   int          `json:"num_steps"`
}

// NumBins returns the trace length.
func (a *AScan) NumBins() int { return len(a.Amplitude) }

// MaxDepthM returns the deepest bin of the depth axis.
func (a *AScan) MaxDepthM() float64 {
	if len(a.DepthAxis) == 0 {
		return 0
	}
	return a.DepthAxis[len(a.DepthAxis)-1]
}

// sameDepthAxis reports whether two A-scans share bin count, bin width and
// velocity. Used by the radargram assembler.
func (a *AScan) sameDepthAxis(b *AScan) bool {
	return a.NumBins() == b.NumBins() &&
		a.BinWidthM == b.BinWidthM &&
		a.VelocityMpns == b.VelocityMpns
}

// Reconstruct converts one frequency-domain sweep into a depth-domain
// amplitude trace:
//
//  1. remove the constant (DC) bias from the complex samples
//  2. window the usable band; out-of-band steps are zeroed, not dropped,
//     preserving the step-to-bin mapping
//  3. zero-padded inverse DFT across the frequency-step axis
//  4. envelope via the magnitude of the analytic (Hilbert) signal
//  5. shift by the time-zero offset so bin 0 is the air-ground interface
//  6. optional AGC against a sliding noise-energy estimate
//  7. depth axis from depth = velocity * time / 2 (two-way travel)
//
// The output is deterministic: identical input and parameters reproduce the
// trace bit-for-bit.
func Reconstruct(sweep *FrequencySweep, params ProcessingParams) (*AScan, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := sweep.Validate(); err != nil {
		return nil, err
	}

	n := sweep.NumSteps()
	spacing := sweep.StepSpacingHz()

	// 1. DC bias removal.
	spectrum := make([]complex128, n)
	var mean complex128
	for i, step := range sweep.Steps {
		spectrum[i] = step.Sample
		mean += step.Sample
	}
	mean /= complex(float64(n), 0)
	for i := range spectrum {
		spectrum[i] -= mean
	}

	// 2. Bandpass window. A raised-cosine taper across the passband keeps
	// range sidelobes down; steps outside the band are zeroed.
	applyBandWindow(spectrum, sweep, params.BandpassLowHz, params.BandpassHighHz)

	// 3. Zero-padded inverse DFT. The padded length refines bin spacing by
	// the fixed PaddingFactor without adding information.
	padded := n * params.PaddingFactor
	coeffs := make([]complex128, padded)
	copy(coeffs, spectrum)

	fft := fourier.NewCmplxFFT(padded)
	trace := fft.Sequence(nil, coeffs)
	scale := complex(1/float64(padded), 0)
	for i := range trace {
		trace[i] *= scale
	}

	// 4. Envelope detection. The instantaneous amplitude of the analytic
	// signal removes carrier ripple while preserving reflector peaks.
	envelope := analyticEnvelope(realParts(trace))

	// Bin spacing: the unambiguous time window of a stepped sweep is
	// 1/spacing, split across the padded trace.
	dtSec := 1 / (float64(padded) * spacing)
	dtNs := dtSec * 1e9

	// 5. Time-zero shift.
	shiftBins := int(math.Round(params.TimeZeroOffsetNs / dtNs))
	envelope = shiftTrace(envelope, shiftBins)

	// 6. AGC.
	if params.ApplyAGC {
		window := int(params.AGCWindowFrac * float64(padded))
		if window < 3 {
			window = 3
		}
		envelope = applyAGC(envelope, window)
	}

	// 7. Depth axis.
	depthAxis := make([]float64, padded)
	binWidth := params.VelocityMpns * dtNs / 2
	for k := range depthAxis {
		depthAxis[k] = params.VelocityMpns * (float64(k) * dtNs) / 2
	}

	return &AScan{
		Amplitude:    envelope,
		DepthAxis:    depthAxis,
		TimeStepNs:   dtNs,
		BinWidthM:    binWidth,
		VelocityMpns: params.VelocityMpns,
		SNRdB:        estimateTraceSNR(envelope),
		CapturedAt:   sweep.CapturedAt,
		Location:     sweep.Location,
		NumSteps:     n,
	}, nil
}

// applyBandWindow zeroes steps outside [lowHz, highHz] and applies a Hann
// taper across the in-band steps.
func applyBandWindow(spectrum []complex128, sweep *FrequencySweep, lowHz, highHz float64) {
	first, last := -1, -1
	for i, step := range sweep.Steps {
		if step.FrequencyHz < lowHz || step.FrequencyHz > highHz {
			spectrum[i] = 0
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || last == first {
		return
	}
	span := float64(last - first)
	for i := first; i <= last; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i-first)/span)
		spectrum[i] *= complex(w, 0)
	}
}

// realParts extracts the real component of a complex trace.
func realParts(trace []complex128) []float64 {
	out := make([]float64, len(trace))
	for i, c := range trace {
		out[i] = real(c)
	}
	return out
}

// analyticEnvelope returns the instantaneous amplitude of x: the magnitude
// of the analytic signal built by zeroing negative frequencies and doubling
// positive ones.
func analyticEnvelope(x []float64) []float64 {
	n := len(x)
	c := make([]complex128, n)
	for i, v := range x {
		c[i] = complex(v, 0)
	}

	fft := fourier.NewCmplxFFT(n)
	spec := fft.Coefficients(nil, c)

	half := n / 2
	for i := 1; i < half; i++ {
		spec[i] *= 2
	}
	for i := half + 1; i < n; i++ {
		spec[i] = 0
	}

	analytic := fft.Sequence(nil, spec)
	env := make([]float64, n)
	scale := 1 / float64(n)
	for i, v := range analytic {
		env[i] = math.Hypot(real(v), imag(v)) * scale
	}
	return env
}

// shiftTrace moves the trace left by bins (right for negative bins),
// zero-filling the vacated region. Samples shifted past either end are
// dropped, not wrapped.
func shiftTrace(x []float64, bins int) []float64 {
	if bins == 0 {
		return x
	}
	out := make([]float64, len(x))
	if bins > 0 {
		if bins < len(x) {
			copy(out, x[bins:])
		}
	} else {
		if -bins < len(x) {
			copy(out[-bins:], x)
		}
	}
	return out
}

// applyAGC normalises the trace by a sliding-window RMS energy estimate.
// Window edges are padded with the trace noise floor rather than zero so
// the first and last bins are not boosted into artificial peaks.
func applyAGC(x []float64, window int) []float64 {
	n := len(x)
	floor := noiseFloorValue(x)
	half := window / 2

	out := make([]float64, n)
	for i := range x {
		var sum float64
		for j := i - half; j <= i+half; j++ {
			v := floor
			if j >= 0 && j < n {
				v = x[j]
			}
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(2*half+1))
		if rms < 1e-12 {
			rms = 1e-12
		}
		out[i] = x[i] / rms
	}
	return out
}

// noiseFloorValue estimates a floor amplitude as the 10th percentile of the
// trace. Deterministic for a given trace.
func noiseFloorValue(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return sorted[len(sorted)/10]
}

// estimateTraceSNR computes the trace-level SNR in dB: peak amplitude over
// the RMS of the trailing 10% of the trace, which sits past the deepest
// plausible return after time-zero correction.
func estimateTraceSNR(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	tail := x[n-n/10:]
	if len(tail) == 0 {
		tail = x
	}
	var sum float64
	for _, v := range tail {
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(tail)))

	peak := 0.0
	for _, v := range x {
		if v > peak {
			peak = v
		}
	}
	if rms <= 0 {
		return math.Inf(1)
	}
	return 20 * math.Log10(peak/rms)
}
