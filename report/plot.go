package report

import (
	"fmt"
	"github.com/dasnellings/methylTools/call"
	seqctx "github.com/dasnellings/methylTools/context"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"image/color"
	"io"
)

var contextColors = [3]color.Color{
	seqctx.CG:  color.RGBA{R: 200, G: 40, B: 40, A: 255},
	seqctx.CHG: color.RGBA{R: 40, G: 120, B: 200, A: 255},
	seqctx.CHH: color.RGBA{R: 60, G: 160, B: 60, A: 255},
}

// WritePlot draws an SVG frequency polygon of the methylation level of depth
// passing cytosines, one line per context.
func WritePlot(w io.Writer, title string, groups ...[]call.MethylationCall) error {
	var bins [3][]float64
	var total [3]int
	for ctx := range bins {
		bins[ctx] = make([]float64, histogramBins)
	}
	var bin int
	for _, calls := range groups {
		for i := range calls {
			if !calls[i].PassesDepth {
				continue
			}
			bin = int(calls[i].Level * histogramBins)
			if bin >= histogramBins {
				bin = histogramBins - 1
			}
			bins[calls[i].Context.Context][bin]++
			total[calls[i].Context.Context]++
		}
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.Title.TextStyle.Font.Size = 15
	pl.X.Label.Text = "Methylation level"
	pl.Y.Label.Text = "Cytosines"
	pl.X.Min = 0
	pl.X.Max = 1
	pl.Legend.Top = true

	for _, ctx := range seqctx.All {
		if total[ctx] == 0 {
			continue
		}
		xys := make(plotter.XYs, histogramBins)
		for b := range xys {
			xys[b].X = (float64(b) + 0.5) / histogramBins
			xys[b].Y = bins[ctx][b]
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		l.LineStyle = draw.LineStyle{Color: contextColors[ctx], Width: vg.Points(1.5)}
		pl.Add(l)
		pl.Legend.Add(fmt.Sprintf("%s (%d)", ctx, total[ctx]), l)
	}

	wt, err := pl.WriterTo(20*vg.Centimeter, 12*vg.Centimeter, "svg")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
