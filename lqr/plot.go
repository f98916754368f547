package lqr

import (
	"fmt"

	"github.com/dasnellings/panelTools/plotutil"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// AsciiPlot renders the LQR percent at each sweep point for a terminal.
func AsciiPlot(results []Result) string {
	props := Proportions(results)
	if len(props) == 0 {
		return ""
	}
	return asciigraph.Plot(props,
		asciigraph.Height(10),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(asciigraph.BlueViolet),
		asciigraph.Caption("Percentage of LQR in panel target regions"))
}

// PlotProportions saves a line plot of LQR percent against reads per amplicon.
func PlotProportions(results []Result, file string) error {
	var pts plotter.XYs
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(results[i].SweepValue), Y: results[i].Proportion()})
	}
	if len(pts) == 0 {
		return fmt.Errorf("no classified coverage files to plot")
	}

	p := plot.New()
	plotutil.Title(p, "Percentage of LQR in a panel target regions")
	p.X.Label.Text = "Reads per amplicon"
	p.Y.Label.Text = "Percentage"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Color = plotutil.Purple
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)

	return plotutil.Save(p, 15, 8, file)
}
