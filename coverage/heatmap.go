package coverage

import (
	"strconv"

	"github.com/dasnellings/panelTools/plotutil"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// grid adapts a Matrix to plotter.GridXYZ with columns on x and rows on y.
type grid struct {
	m Matrix
}

func (g grid) Dims() (c, r int) {
	return len(g.m.Cols), len(g.m.Rows)
}

func (g grid) Z(c, r int) float64 {
	return g.m.Cells[r][c]
}

func (g grid) X(c int) float64 {
	return float64(c)
}

func (g grid) Y(r int) float64 {
	return float64(r)
}

func labels(v []int) plotutil.LabelTicks {
	ans := make(plotutil.LabelTicks, len(v))
	for i := range v {
		ans[i] = strconv.Itoa(v[i])
	}
	return ans
}

// Heatmap saves m as an annotated heatmap. Axis ticks carry the literal reads
// per sample and reads per amplicon values.
func Heatmap(m Matrix, file string) error {
	hm := plotter.NewHeatMap(grid{m: m}, plotutil.RedYellowGreen())
	hm.Min, hm.Max = 0, 100

	p := plot.New()
	plotutil.Title(p, "Proportion of amplicons (%) with the target coverage")
	p.Add(hm)

	var annot plotter.XYLabels
	for i := range m.Rows {
		for j := range m.Cols {
			annot.XYs = append(annot.XYs, plotter.XY{X: float64(j), Y: float64(i)})
			annot.Labels = append(annot.Labels, strconv.FormatFloat(m.Cells[i][j], 'g', 3, 64))
		}
	}
	lb, err := plotter.NewLabels(annot)
	if err != nil {
		return err
	}
	p.Add(lb)

	p.X.Label.Text = "Reads per sample"
	p.Y.Label.Text = "Reads per amplicon"
	p.X.Tick.Marker = labels(m.Cols)
	p.Y.Tick.Marker = labels(m.Rows)
	plotutil.RotateLabels(p)

	return plotutil.Save(p, 16, 5, file)
}
