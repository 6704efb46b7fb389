package gpr

// Radargram is a B-scan: sequential A-scans stacked along survey distance
// over a shared depth axis. Build one with an Assembler; a finalized
// Radargram is not mutated further.
type Radargram struct {
	// Traces holds the A-scans in survey order.
	Traces []*AScan `json:"traces"`

	// Distances holds the survey distance (meters) of each trace.
	Distances []float64 `json:"distances"`

	// DepthAxis is the shared depth axis of every trace.
	DepthAxis []float64 `json:"depth_axis"`

	// Segments marks the start index of each survey pass. A single-pass
	// survey has one segment starting at 0.
	Segments []int `json:"segments"`
}

// NumTraces returns the number of stacked A-scans.
func (r *Radargram) NumTraces() int { return len(r.Traces) }

// Assembler accumulates A-scans into a radargram while enforcing survey
// geometry. It must be exclusively owned by one goroutine; concurrent
// appenders require external serialization.
type Assembler struct {
	allowMultiPass bool
	traces         []*AScan
	distances      []float64
	segments       []int
	finalized      bool
}

// NewAssembler creates a single-pass radargram assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// NewMultiPassAssembler creates an assembler that accepts direction
// reversals, starting a new survey segment at each one instead of failing.
func NewMultiPassAssembler() *Assembler {
	return &Assembler{allowMultiPass: true}
}

// Append adds one A-scan at the given survey distance.
//
// The A-scan's depth axis must match the axis established by the first
// trace; a mismatch fails with *InconsistentDepthAxisError rather than
// silently resampling. Distances must be monotonically non-decreasing; a
// reversal fails with *NonMonotonicDistanceError unless the assembler was
// built for multi-pass surveys, in which case it begins a new segment.
// Appending after Finalize fails with *AssemblerFinalizedError.
func (b *Assembler) Append(ascan *AScan, distanceM float64) error {
	if b.finalized {
		return &AssemblerFinalizedError{}
	}

	if len(b.traces) > 0 {
		first := b.traces[0]
		if !first.sameDepthAxis(ascan) {
			if first.NumBins() != ascan.NumBins() {
				return &InconsistentDepthAxisError{WantBins: first.NumBins(), GotBins: ascan.NumBins()}
			}
			return &InconsistentDepthAxisError{
				WantBins: first.NumBins(),
				GotBins:  ascan.NumBins(),
				Detail:   "traces reconstructed with different velocity or bin width",
			}
		}

		if distanceM < b.lastDistance() {
			if !b.allowMultiPass {
				return &NonMonotonicDistanceError{Prev: b.lastDistance(), Got: distanceM}
			}
			b.segments = append(b.segments, len(b.traces))
		}
	} else {
		b.segments = []int{0}
	}

	b.traces = append(b.traces, ascan)
	b.distances = append(b.distances, distanceM)
	return nil
}

// Finalize freezes the assembled radargram and returns it. Further Append
// calls fail.
func (b *Assembler) Finalize() *Radargram {
	b.finalized = true
	var depthAxis []float64
	if len(b.traces) > 0 {
		depthAxis = b.traces[0].DepthAxis
	}
	return &Radargram{
		Traces:    b.traces,
		Distances: b.distances,
		DepthAxis: depthAxis,
		Segments:  b.segments,
	}
}

func (b *Assembler) lastDistance() float64 {
	if len(b.distances) == 0 {
		return 0
	}
	return b.distances[len(b.distances)-1]
}
