// Package export hands survey data to external archival consumers in two
// layouts: a hierarchical container with named sections for raw sweeps,
// processed traces, metadata and derived targets, and a SEG-Y trace file
// for interoperability with third-party geophysical software.
package export

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/subsurface.report/internal/gpr"
)

// Container section names.
const (
	SectionRawSweeps = "raw_sweeps"
	SectionTraces    = "processed_traces"
	SectionMetadata  = "acquisition_metadata"
	SectionTargets   = "derived_targets"
)

// containerVersion guards against decoding archives written by an
// incompatible release.
const containerVersion = 1

// HardwareSettings captures the front-end configuration active during the
// survey.
type HardwareSettings struct {
	CenterFreqHz float64 `json:"center_freq_hz"`
	FreqStartHz  float64 `json:"freq_start_hz"`
	FreqStopHz   float64 `json:"freq_stop_hz"`
	NumSteps     int     `json:"num_steps"`
	SampleRateHz float64 `json:"sample_rate_hz"`
	TxPowerDBm   float64 `json:"tx_power_dbm"`
	RxGainDB     float64 `json:"rx_gain_db"`
}

// Metadata is the acquisition-metadata section of a survey container.
type Metadata struct {
	SurveyID  string               `json:"survey_id"`
	StartedAt time.Time            `json:"started_at"`
	Location  *gpr.Geolocation     `json:"location,omitempty"`
	Hardware  HardwareSettings     `json:"hardware"`
	Params    gpr.ProcessingParams `json:"params"`
	Notes     string               `json:"notes,omitempty"`
}

// RawSweep is the archive form of a frequency sweep: frequencies and IQ
// components stored as parallel float slices (gob has no complex support).
type RawSweep struct {
	FrequenciesHz []float64
	I             []float64
	Q             []float64
	SampleRateHz  float64
	CapturedAt    time.Time
	Location      *gpr.Geolocation
}

// ToFrequencySweep reconstructs the processing-side sweep type.
func (r *RawSweep) ToFrequencySweep() *gpr.FrequencySweep {
	steps := make([]gpr.FrequencyStep, len(r.FrequenciesHz))
	for i, f := range r.FrequenciesHz {
		steps[i] = gpr.FrequencyStep{FrequencyHz: f, Sample: complex(r.I[i], r.Q[i])}
	}
	return &gpr.FrequencySweep{
		Steps:        steps,
		SampleRateHz: r.SampleRateHz,
		CapturedAt:   r.CapturedAt,
		Location:     r.Location,
	}
}

func flattenSweep(s *gpr.FrequencySweep) RawSweep {
	raw := RawSweep{
		FrequenciesHz: make([]float64, len(s.Steps)),
		I:             make([]float64, len(s.Steps)),
		Q:             make([]float64, len(s.Steps)),
		SampleRateHz:  s.SampleRateHz,
		CapturedAt:    s.CapturedAt,
		Location:      s.Location,
	}
	for i, step := range s.Steps {
		raw.FrequenciesHz[i] = step.FrequencyHz
		raw.I[i] = real(step.Sample)
		raw.Q[i] = imag(step.Sample)
	}
	return raw
}

// Container is the hierarchical survey archive. Raw samples, processed
// traces, metadata and derived targets are grouped under named sections so
// an archival consumer can skip the parts it does not need.
type Container struct {
	Version   int
	Metadata  Metadata
	RawSweeps []RawSweep
	Traces    []*gpr.AScan
	Targets   map[int][]gpr.Target // trace index -> detections
	Radargram *gpr.Radargram
}

// NewContainer creates an archive for one survey.
func NewContainer(meta Metadata) *Container {
	return &Container{
		Version:  containerVersion,
		Metadata: meta,
		Targets:  make(map[int][]gpr.Target),
	}
}

// AddTrace appends a raw sweep, its reconstructed trace, and its
// detections as one aligned record.
func (c *Container) AddTrace(sweep *gpr.FrequencySweep, ascan *gpr.AScan, targets []gpr.Target) {
	idx := len(c.Traces)
	c.RawSweeps = append(c.RawSweeps, flattenSweep(sweep))
	c.Traces = append(c.Traces, ascan)
	if len(targets) > 0 {
		c.Targets[idx] = targets
	}
}

// SectionNames lists the sections present in the container.
func (c *Container) SectionNames() []string {
	names := []string{SectionMetadata}
	if len(c.RawSweeps) > 0 {
		names = append(names, SectionRawSweeps)
	}
	if len(c.Traces) > 0 {
		names = append(names, SectionTraces)
	}
	if len(c.Targets) > 0 {
		names = append(names, SectionTargets)
	}
	return names
}

// WriteContainer serialises the container to path as gzip-compressed gob.
func WriteContainer(path string, c *Container) error {
	cleanPath, err := validateArchivePath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot create archive: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(c); err != nil {
		zw.Close()
		return fmt.Errorf("cannot encode archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("cannot finish archive: %w", err)
	}
	return f.Sync()
}

// ReadContainer loads a container written by WriteContainer.
func ReadContainer(path string) (*Container, error) {
	cleanPath, err := validateArchivePath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("not a survey archive: %w", err)
	}
	defer zr.Close()

	var c Container
	if err := gob.NewDecoder(zr).Decode(&c); err != nil {
		return nil, fmt.Errorf("cannot decode archive: %w", err)
	}
	if c.Version != containerVersion {
		return nil, fmt.Errorf("unsupported archive version %d", c.Version)
	}
	return &c, nil
}

// validateArchivePath rejects empty and traversal-prone paths.
func validateArchivePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty archive path")
	}
	cleanPath := filepath.Clean(path)
	base := filepath.Base(cleanPath)
	if base == "." || base == ".." {
		return "", fmt.Errorf("invalid archive filename %q", path)
	}
	return cleanPath, nil
}
