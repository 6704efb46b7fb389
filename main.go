// Command subsurface-calibrate runs the GPR calibration compliance suite
// against the reference target set and stores the resulting report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/subsurface.report/internal/acquire"
	"github.com/banshee-data/subsurface.report/internal/calib"
	"github.com/banshee-data/subsurface.report/internal/gpr"
	"github.com/banshee-data/subsurface.report/internal/gprdb"
	"github.com/banshee-data/subsurface.report/internal/render"
	"github.com/banshee-data/subsurface.report/internal/units"
)

var (
	mode        = flag.String("mode", "full", "Test mode: quick, full, or regression")
	baseline    = flag.String("baseline", "", "Baseline for regression mode: a stored run ID, a baseline label, or a report JSON path (default: latest complete report)")
	tagLabel    = flag.String("tag", "", "Baseline label to assign to the stored report")
	outPath     = flag.String("out", "", "Write the report JSON to this path")
	htmlPath    = flag.String("html", "", "Write the HTML compliance document to this path")
	dbPath      = flag.String("db", "calibration.db", "Report database path")
	migrations  = flag.String("migrations", "migrations", "Schema migrations directory")
	depthUnit   = flag.String("depth-unit", units.Meters, "Depth unit for reported depths: m, ft, or in")
	configPath  = flag.String("config", "", "Processing parameters JSON (default: built-in defaults)")
	targetsPath = flag.String("targets", "", "Calibration targets JSON (default: built-in reference set)")
	environment = flag.String("env", "", "Free-text environment metadata for the report")
	simSeed     = flag.Int64("sim-seed", 1, "Seed for the simulated acquisition front end")
	simNoise    = flag.Float64("sim-noise", 0.02, "Noise level for the simulated acquisition front end")
)

func main() {
	flag.Parse()

	if !units.IsValidDepthUnit(*depthUnit) {
		log.Fatalf("invalid depth unit %q (valid: %s)", *depthUnit, strings.Join(units.ValidDepthUnits, ", "))
	}

	params := gpr.DefaultProcessingParams()
	// Gain normalisation flattens the absolute amplitudes that SNR scoring
	// compares against the target minimums, so it stays off here. Survey
	// rendering keeps it on.
	params.ApplyAGC = false
	if *configPath != "" {
		var err error
		params, err = gpr.LoadProcessingParams(*configPath)
		if err != nil {
			log.Fatalf("failed to load processing params: %v", err)
		}
	}

	targets := calib.DefaultTargets()
	if *targetsPath != "" {
		var err error
		targets, err = loadTargets(*targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
	}

	db, err := gprdb.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open report database: %v", err)
	}
	defer db.Close()
	// Baseline labelling lives in a schema migration; skip it when the
	// migrations directory is not deployed alongside the binary.
	if _, statErr := os.Stat(*migrations); statErr == nil {
		if err := db.MigrateUp(*migrations); err != nil {
			log.Fatalf("failed to migrate report database: %v", err)
		}
	} else {
		log.Printf("migrations directory %s not found, skipping schema migration", *migrations)
	}
	store := gprdb.NewReportStore(db)

	var baselineReport *calib.CalibrationReport
	if calib.Mode(*mode) == calib.ModeRegression {
		baselineReport, err = loadBaseline(store, *baseline)
		if err != nil {
			log.Fatalf("failed to load regression baseline: %v", err)
		}
		log.Printf("regression baseline: run %s from %s", baselineReport.RunID, baselineReport.Timestamp.Format("2006-01-02"))
	}

	// The simulated front end stands in for the acquisition hardware; it
	// synthesises returns for the configured reference reflectors.
	simCfg := acquire.DefaultSimulatorConfig()
	simCfg.VelocityMpns = params.VelocityMpns
	simCfg.Seed = *simSeed
	simCfg.NoiseLevel = *simNoise
	reflectors := make([]acquire.SimReflector, len(targets))
	for i, t := range targets {
		reflectors[i] = acquire.SimReflector{DepthM: t.NominalDepthM, SNRdB: t.MinSNRdB + 6}
	}
	acquirer := acquire.NewSimulator(simCfg, reflectors)

	suite, err := calib.NewSuite(acquirer, calib.Config{
		Targets:     targets,
		Mode:        calib.Mode(*mode),
		Params:      params,
		Baseline:    baselineReport,
		Environment: *environment,
	})
	if err != nil {
		log.Fatalf("failed to configure suite: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, runErr := suite.Run(ctx)
	if runErr != nil {
		log.Printf("run aborted: %v", runErr)
	}

	// The report is always persisted, even for aborted runs, so partial
	// results stay inspectable.
	if err := store.SaveReport(report); err != nil {
		log.Fatalf("failed to store report: %v", err)
	}
	log.Printf("stored report %s", report.RunID)
	if *tagLabel != "" {
		if err := store.TagBaseline(report.RunID, *tagLabel); err != nil {
			log.Fatalf("failed to tag report as baseline %q: %v", *tagLabel, err)
		}
		log.Printf("tagged report %s as baseline %q", report.RunID, *tagLabel)
	}

	if *outPath != "" {
		if err := writeReportJSON(*outPath, report); err != nil {
			log.Fatalf("failed to write report JSON: %v", err)
		}
	}
	if *htmlPath != "" {
		if err := render.SaveComplianceHTML(*htmlPath, report); err != nil {
			log.Fatalf("failed to write compliance document: %v", err)
		}
	}

	for _, r := range report.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		log.Printf("  %-8s nominal %.2f%s measured %.3f%s (err %+.3f%s) SNR %.1fdB  %s %s",
			r.Target.Label,
			units.ConvertDepth(r.Target.NominalDepthM, *depthUnit), *depthUnit,
			units.ConvertDepth(r.MeasuredDepthM, *depthUnit), *depthUnit,
			units.ConvertDepth(r.DepthErrorM, *depthUnit), *depthUnit,
			r.MeasuredSNRdB, status, r.Note)
	}
	log.Printf("overall: pass=%v incomplete=%v velocity=%.4f m/ns (%.3g m/s)",
		report.OverallPass, report.Incomplete,
		report.EstimatedVelocityMpns, units.MpnsToMps(report.EstimatedVelocityMpns))

	if !report.OverallPass {
		os.Exit(1)
	}
}

// loadTargets reads a JSON array of calibration targets.
func loadTargets(path string) ([]calib.CalibrationTarget, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var targets []calib.CalibrationTarget
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// loadBaseline resolves the -baseline flag: a JSON report path, a stored
// run ID, a baseline label, or (empty) the latest complete stored report.
func loadBaseline(store *gprdb.ReportStore, ref string) (*calib.CalibrationReport, error) {
	if ref == "" {
		return store.LatestCompleteReport()
	}
	if strings.HasSuffix(ref, ".json") {
		data, err := os.ReadFile(filepath.Clean(ref))
		if err != nil {
			return nil, err
		}
		var report calib.CalibrationReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, err
		}
		return &report, nil
	}
	report, err := store.LoadReport(ref)
	if err == nil {
		return report, nil
	}
	if labelled, labelErr := store.ReportByBaselineLabel(ref); labelErr == nil {
		return labelled, nil
	}
	return nil, err
}

func writeReportJSON(path string, report *calib.CalibrationReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
