// Command gpr-survey assembles recorded (or simulated) sweeps into a
// radargram and exports it: survey archive, SEG-Y trace file, and plots.
package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/subsurface.report/internal/acquire"
	"github.com/banshee-data/subsurface.report/internal/export"
	"github.com/banshee-data/subsurface.report/internal/gpr"
	"github.com/banshee-data/subsurface.report/internal/render"
)

var (
	inPath     = flag.String("in", "", "Input survey archive; empty runs the simulated front end instead")
	outDir     = flag.String("out-dir", ".", "Output directory")
	configPath = flag.String("config", "", "Processing parameters JSON")
	numTraces  = flag.Int("traces", 40, "Number of traces for a simulated survey")
	spacingM   = flag.Float64("spacing", 0.1, "Trace spacing in meters")
	depthM     = flag.Float64("depth", 1.0, "Reflector depth for a simulated survey")
	writeSEGY  = flag.Bool("segy", true, "Write a SEG-Y trace file")
	writePNG   = flag.Bool("png", true, "Write a radargram PNG")
	seed       = flag.Int64("seed", 1, "Simulator seed")
)

func main() {
	flag.Parse()

	params := gpr.DefaultProcessingParams()
	if *configPath != "" {
		var err error
		params, err = gpr.LoadProcessingParams(*configPath)
		if err != nil {
			log.Fatalf("failed to load processing params: %v", err)
		}
	}

	var sweeps []*gpr.FrequencySweep
	meta := export.Metadata{
		SurveyID:  uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Params:    params,
	}

	if *inPath != "" {
		container, err := export.ReadContainer(*inPath)
		if err != nil {
			log.Fatalf("failed to read survey archive: %v", err)
		}
		meta = container.Metadata
		for i := range container.RawSweeps {
			sweeps = append(sweeps, container.RawSweeps[i].ToFrequencySweep())
		}
		log.Printf("loaded %d raw sweeps from %s", len(sweeps), *inPath)
	} else {
		sweeps = simulateLine(params, *numTraces, *depthM, *seed)
		simCfg := acquire.DefaultSimulatorConfig()
		meta.Hardware = export.HardwareSettings{
			CenterFreqHz: (simCfg.FreqStartHz + simCfg.FreqStopHz) / 2,
			FreqStartHz:  simCfg.FreqStartHz,
			FreqStopHz:   simCfg.FreqStopHz,
			NumSteps:     simCfg.NumSteps,
			SampleRateHz: simCfg.SampleRateHz,
		}
		log.Printf("simulated %d sweeps with reflector at %.2fm", len(sweeps), *depthM)
	}

	container := export.NewContainer(meta)
	assembler := gpr.NewAssembler()
	for i, sweep := range sweeps {
		ascan, err := gpr.Reconstruct(sweep, params)
		if err != nil {
			log.Printf("skipping trace %d: %v", i, err)
			continue
		}
		targets := gpr.Detect(ascan, params.SNRThresholdDB)
		container.AddTrace(sweep, ascan, targets)
		if err := assembler.Append(ascan, float64(i)**spacingM); err != nil {
			log.Fatalf("failed to append trace %d: %v", i, err)
		}
	}
	rg := assembler.Finalize()
	container.Radargram = rg
	if rg.NumTraces() == 0 {
		log.Fatal("no usable traces in survey")
	}

	archivePath := filepath.Join(*outDir, "survey.gob.gz")
	if err := export.WriteContainer(archivePath, container); err != nil {
		log.Fatalf("failed to write survey archive: %v", err)
	}
	log.Printf("wrote %s (%d traces, sections %v)", archivePath, rg.NumTraces(), container.SectionNames())

	if *writeSEGY {
		segyPath := filepath.Join(*outDir, "survey.sgy")
		if err := export.WriteSEGY(segyPath, rg, meta); err != nil {
			log.Fatalf("failed to write SEG-Y: %v", err)
		}
		log.Printf("wrote %s", segyPath)
	}
	if *writePNG {
		pngPath := filepath.Join(*outDir, "radargram.png")
		if err := render.SaveRadargramPNG(pngPath, rg); err != nil {
			log.Fatalf("failed to write radargram plot: %v", err)
		}
		log.Printf("wrote %s", pngPath)
	}
}

// simulateLine synthesises one survey line over a constant-depth reflector.
func simulateLine(params gpr.ProcessingParams, n int, depth float64, seed int64) []*gpr.FrequencySweep {
	cfg := acquire.DefaultSimulatorConfig()
	cfg.VelocityMpns = params.VelocityMpns
	cfg.Seed = seed
	sim := acquire.NewSimulator(cfg, []acquire.SimReflector{{DepthM: depth, SNRdB: 20}})

	out := make([]*gpr.FrequencySweep, 0, n)
	for i := 0; i < n; i++ {
		sweeps, err := sim.Acquire(context.Background(), acquire.Request{TargetLabel: "line", NumSweeps: 1})
		if err != nil {
			continue
		}
		out = append(out, sweeps...)
	}
	return out
}
