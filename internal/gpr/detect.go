package gpr

import (
	"math"
	"sort"
)

// Target is one detected subsurface reflector. Produced from a single
// A-scan; never mutated after creation.
type Target struct {
	// DepthM is the estimated reflector depth in meters, refined below the
	// bin width by parabolic interpolation around the peak.
	DepthM float64 `json:"depth_m"`

	// TimeNs is the two-way travel time corresponding to DepthM.
	TimeNs float64 `json:"time_ns"`

	// Amplitude is the envelope amplitude at the peak bin.
	Amplitude float64 `json:"amplitude"`

	// SNRdB is the peak amplitude relative to the estimated noise floor.
	SNRdB float64 `json:"snr_db"`

	// Bin is the peak depth-bin index.
	Bin int `json:"bin"`
}

// DetectorOptions tunes target detection beyond the SNR threshold.
type DetectorOptions struct {
	// MinSeparationBins suppresses lesser maxima within this many bins of
	// a stronger one, so sidelobes of one reflector are not reported as
	// separate targets. Zero selects a default scaled to the radar pulse
	// width (trace length over effective bandwidth bins).
	MinSeparationBins int

	// NoiseFloor supplies a dedicated blank-site amplitude trace for the
	// noise estimate instead of the trailing portion of the A-scan.
	NoiseFloor []float64

	// MinRelativeAmplitude rejects peaks below this fraction of the trace
	// maximum. Zero selects the default of 0.1.
	MinRelativeAmplitude float64
}

const defaultMinRelativeAmplitude = 0.1

// Detect scans an A-scan for statistically significant reflectors and
// returns them ordered by increasing depth. No peak above the threshold
// yields an empty slice, not an error. Output is deterministic for
// identical input.
func Detect(ascan *AScan, snrThresholdDB float64) []Target {
	return DetectWithOptions(ascan, snrThresholdDB, DetectorOptions{})
}

// DetectWithOptions is Detect with explicit detector tuning.
func DetectWithOptions(ascan *AScan, snrThresholdDB float64, opts DetectorOptions) []Target {
	n := ascan.NumBins()
	if n < 3 {
		return nil
	}

	noiseRMS := detectionNoiseRMS(ascan, opts.NoiseFloor)

	minRel := opts.MinRelativeAmplitude
	if minRel == 0 {
		minRel = defaultMinRelativeAmplitude
	}
	maxAmp := 0.0
	for _, v := range ascan.Amplitude {
		if v > maxAmp {
			maxAmp = v
		}
	}
	minAmp := maxAmp * minRel

	sep := opts.MinSeparationBins
	if sep <= 0 {
		sep = defaultSeparationBins(ascan)
	}

	// Collect local maxima clearing both the relative-amplitude and the
	// SNR gates.
	var peaks []Target
	for i := 1; i < n-1; i++ {
		v := ascan.Amplitude[i]
		if v < ascan.Amplitude[i-1] || v <= ascan.Amplitude[i+1] {
			continue
		}
		if v < minAmp {
			continue
		}
		snr := amplitudeSNRdB(v, noiseRMS)
		if snr < snrThresholdDB {
			continue
		}
		depth, timeNs := interpolatePeak(ascan, i)
		peaks = append(peaks, Target{
			DepthM:    depth,
			TimeNs:    timeNs,
			Amplitude: v,
			SNRdB:     snr,
			Bin:       i,
		})
	}
	if len(peaks) == 0 {
		return nil
	}

	peaks = suppressNeighbours(peaks, sep)

	// Order by depth; equal-depth ties stay stable by bin index.
	sort.SliceStable(peaks, func(i, j int) bool {
		if peaks[i].DepthM != peaks[j].DepthM {
			return peaks[i].DepthM < peaks[j].DepthM
		}
		return peaks[i].Bin < peaks[j].Bin
	})
	return peaks
}

// detectionNoiseRMS estimates the noise amplitude. A supplied blank-site
// trace wins; otherwise the trailing 10% of the A-scan is used, falling back
// to the whole trace when it is too short to carve a trailing window from.
func detectionNoiseRMS(ascan *AScan, blankSite []float64) float64 {
	region := blankSite
	if len(region) == 0 {
		n := ascan.NumBins()
		region = ascan.Amplitude[n-n/10:]
		if len(region) == 0 {
			region = ascan.Amplitude
		}
	}
	if len(region) == 0 {
		return 0
	}
	var sum float64
	for _, v := range region {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(region)))
}

// amplitudeSNRdB converts a peak amplitude to dB over the noise RMS.
func amplitudeSNRdB(amp, noiseRMS float64) float64 {
	if noiseRMS <= 0 {
		return math.Inf(1)
	}
	if amp <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amp/noiseRMS)
}

// defaultSeparationBins scales the suppression window to the expected pulse
// width: the reciprocal bandwidth expressed in depth bins, doubled to cover
// both main-lobe shoulders.
func defaultSeparationBins(ascan *AScan) int {
	if ascan.NumSteps <= 0 {
		return 3
	}
	// Padded bins per original frequency step; the compressed pulse spans
	// roughly one unpadded resolution cell.
	bins := 2 * ascan.NumBins() / ascan.NumSteps
	if bins < 3 {
		bins = 3
	}
	return bins
}

// suppressNeighbours keeps only the highest-SNR peak within each
// minimum-separation window. Peaks are examined strongest-first so a weak
// sidelobe never shadows the reflector that produced it.
func suppressNeighbours(peaks []Target, sep int) []Target {
	byStrength := make([]Target, len(peaks))
	copy(byStrength, peaks)
	sort.SliceStable(byStrength, func(i, j int) bool {
		if byStrength[i].SNRdB != byStrength[j].SNRdB {
			return byStrength[i].SNRdB > byStrength[j].SNRdB
		}
		return byStrength[i].Bin < byStrength[j].Bin
	})

	var kept []Target
	for _, p := range byStrength {
		shadowed := false
		for _, k := range kept {
			if abs(p.Bin-k.Bin) < sep {
				shadowed = true
				break
			}
		}
		if !shadowed {
			kept = append(kept, p)
		}
	}
	return kept
}

// interpolatePeak refines the peak position below the bin width with a
// three-point parabola fit over the envelope, then converts to depth and
// two-way time.
func interpolatePeak(ascan *AScan, bin int) (depthM, timeNs float64) {
	delta := 0.0
	if bin > 0 && bin < ascan.NumBins()-1 {
		ym := ascan.Amplitude[bin-1]
		y0 := ascan.Amplitude[bin]
		yp := ascan.Amplitude[bin+1]
		denom := ym - 2*y0 + yp
		if denom != 0 {
			delta = 0.5 * (ym - yp) / denom
			if delta > 0.5 {
				delta = 0.5
			} else if delta < -0.5 {
				delta = -0.5
			}
		}
	}
	pos := float64(bin) + delta
	timeNs = pos * ascan.TimeStepNs
	depthM = ascan.VelocityMpns * timeNs / 2
	return depthM, timeNs
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
