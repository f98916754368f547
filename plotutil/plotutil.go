// Package plotutil holds the palette, axis tickers, and save helpers shared by the
// heatmap, scatter, and line plots.
package plotutil

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	Grey   = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	Red    = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	Green  = color.RGBA{R: 20, G: 160, B: 20, A: 255}
	Purple = color.RGBA{R: 128, G: 0, B: 128, A: 255}
)

// LabelTicks places one tick per label at integer positions 0..len-1.
type LabelTicks []string

// Ticks satisfies plot.Ticker.
func (s LabelTicks) Ticks(min, max float64) []plot.Tick {
	var ans []plot.Tick
	for i := range s {
		if float64(i) >= min && float64(i) <= max {
			ans = append(ans, plot.Tick{Value: float64(i), Label: s[i]})
		}
	}
	return ans
}

type colors []color.Color

func (c colors) Colors() []color.Color {
	return c
}

// RedYellowGreen is a diverging palette running from red at the minimum through
// yellow to green at the maximum.
func RedYellowGreen() palette.Palette {
	var ans colors
	for i := 0; i < 256; i++ {
		ans = append(ans, color.RGBA{R: 215, G: uint8(48 + i*207/255), B: 39, A: 255})
	}
	for i := 0; i < 256; i++ {
		ans = append(ans, color.RGBA{R: uint8(215 - i*189/255), G: uint8(255 - i*103/255), B: 39, A: 255})
	}
	return ans
}

// RotateLabels turns the x axis tick labels vertical for long labels.
func RotateLabels(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.YAlign = -0.35
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.Font.Size = 8
	p.X.Tick.LineStyle = draw.LineStyle{
		Color:    color.Black,
		Width:    vg.Points(0.5),
		Dashes:   []vg.Length{vg.Millimeter * 1.4},
		DashOffs: 1.4 * vg.Millimeter,
	}
}

// Title sets the title text and size used across all plots.
func Title(p *plot.Plot, title string) {
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = 15
	p.Title.Padding = 0
}

// Save writes p to file with dimensions in inches. The format follows the file
// extension (png, pdf, svg, ...).
func Save(p *plot.Plot, width, height float64, file string) error {
	return p.Save(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, file)
}
