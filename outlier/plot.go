package outlier

import (
	"fmt"
	"image/color"

	"github.com/dasnellings/panelTools/plotutil"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

func points(p []Profile) plotter.XYs {
	ans := make(plotter.XYs, len(p))
	for i := range p {
		ans[i].X = float64(p[i].Rank)
		ans[i].Y = p[i].Share
	}
	return ans
}

func addScatter(p *plot.Plot, profiles []Profile, c color.Color) error {
	if len(profiles) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(points(profiles))
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)
	return nil
}

// Scatter saves the amplicon coverage profile of r: every amplicon's share by
// rank in grey, undercovered in red, overcovered in green, and the fitted
// baseline in purple. Width and height are in inches.
func Scatter(r Result, file string, width, height float64) error {
	p := plot.New()
	plotutil.Title(p, fmt.Sprintf("Profile of amplicon coverage (%s results)", r.Sample))
	p.X.Label.Text = "Amplicon number"
	p.Y.Label.Text = "Amplicon coverage"
	p.Add(plotter.NewGrid())

	var err error
	if err = addScatter(p, r.Profiles, plotutil.Grey); err != nil {
		return err
	}
	if err = addScatter(p, r.Under, plotutil.Red); err != nil {
		return err
	}
	if err = addScatter(p, r.Over, plotutil.Green); err != nil {
		return err
	}

	fit := make(plotter.XYs, len(r.Profiles))
	for i := range r.Profiles {
		fit[i].X = float64(r.Profiles[i].Rank)
		fit[i].Y = r.Profiles[i].Predicted
	}
	line, err := plotter.NewLine(fit)
	if err != nil {
		return err
	}
	line.LineStyle.Color = plotutil.Purple
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	return plotutil.Save(p, width, height, file)
}
