// Package render derives human-facing documents from survey data: radargram
// and A-scan plots, and the HTML compliance report.
package render

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/subsurface.report/internal/gpr"
)

// bscanGrid adapts a radargram to plotter.GridXYZ: X is survey distance,
// Y is depth (negated so the surface is at the top), Z the envelope
// amplitude.
type bscanGrid struct {
	rg *gpr.Radargram
}

func (g bscanGrid) Dims() (c, r int) {
	return g.rg.NumTraces(), len(g.rg.DepthAxis)
}

func (g bscanGrid) Z(c, r int) float64 {
	return g.rg.Traces[c].Amplitude[r]
}

func (g bscanGrid) X(c int) float64 {
	return g.rg.Distances[c]
}

func (g bscanGrid) Y(r int) float64 {
	return -g.rg.DepthAxis[r]
}

// SaveRadargramPNG renders the B-scan as a heatmap of depth against survey
// distance and writes it to path.
func SaveRadargramPNG(path string, rg *gpr.Radargram) error {
	if rg.NumTraces() == 0 {
		return fmt.Errorf("cannot plot empty radargram")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Radargram"
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Depth (m)"

	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(bscanGrid{rg: rg}, pal)
	p.Add(hm)

	return p.Save(24*vg.Centimeter, 12*vg.Centimeter, path)
}

// SaveAScanPNG renders one trace amplitude against depth, with detected
// targets marked.
func SaveAScanPNG(path string, ascan *gpr.AScan, targets []gpr.Target) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "A-Scan"
	p.X.Label.Text = "Depth (m)"
	p.Y.Label.Text = "Amplitude"

	xys := make(plotter.XYs, ascan.NumBins())
	for i := range xys {
		xys[i].X = ascan.DepthAxis[i]
		xys[i].Y = ascan.Amplitude[i]
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	p.Add(line)

	if len(targets) > 0 {
		marks := make(plotter.XYs, len(targets))
		for i, t := range targets {
			marks[i].X = t.DepthM
			marks[i].Y = t.Amplitude
		}
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return err
		}
		p.Add(scatter)
	}

	return p.Save(20*vg.Centimeter, 10*vg.Centimeter, path)
}
