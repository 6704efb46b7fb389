package render

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/subsurface.report/internal/calib"
)

// SaveComplianceHTML renders the calibration report as a self-contained
// HTML document: nominal against measured depth per target, and measured
// SNR against the required minimum. Derived from the same record the
// persistence collaborator stores.
func SaveComplianceHTML(path string, report *calib.CalibrationReport) error {
	labels := make([]string, len(report.Results))
	nominal := make([]opts.BarData, len(report.Results))
	measured := make([]opts.BarData, len(report.Results))
	snrMeasured := make([]opts.BarData, len(report.Results))
	snrRequired := make([]opts.BarData, len(report.Results))

	for i, r := range report.Results {
		labels[i] = r.Target.Label
		nominal[i] = opts.BarData{Value: r.Target.NominalDepthM}
		measured[i] = opts.BarData{Value: r.MeasuredDepthM}
		snrMeasured[i] = opts.BarData{Value: r.MeasuredSNRdB}
		snrRequired[i] = opts.BarData{Value: r.Target.MinSNRdB}
	}

	status := "PASSED"
	if !report.OverallPass {
		status = "FAILED"
	}
	if report.Incomplete {
		status += " (INCOMPLETE)"
	}

	depthChart := charts.NewBar()
	depthChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Calibration %s: %s", report.RunID, status),
			Subtitle: fmt.Sprintf("mode %s, estimated velocity %.4f m/ns", report.Mode, report.EstimatedVelocityMpns),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Depth (m)"}),
	)
	depthChart.SetXAxis(labels).
		AddSeries("nominal depth", nominal).
		AddSeries("measured depth", measured)

	snrChart := charts.NewBar()
	snrChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Signal quality"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "SNR (dB)"}),
	)
	snrChart.SetXAxis(labels).
		AddSeries("required SNR", snrRequired).
		AddSeries("measured SNR", snrMeasured)

	page := components.NewPage()
	page.PageTitle = "GPR Calibration Compliance"
	page.AddCharts(depthChart, snrChart)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create compliance document: %w", err)
	}
	defer f.Close()
	return page.Render(f)
}
