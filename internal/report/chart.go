package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Chart dimensions
var (
	ChartWidth  = 10 * vg.Inch
	ChartHeight = 4 * vg.Inch
)

var (
	areaFill = color.RGBA{R: 66, G: 138, B: 0, A: 90}
	areaLine = color.RGBA{R: 66, G: 138, B: 0, A: 255}
)

// RenderChart writes the modal price history as an SVG area chart
func RenderChart(w io.Writer, r Report) error {
	p := plot.New()
	p.Title.Text = "Commodity Wholesale Price"
	if r.Commodity != "" {
		p.Title.Text = fmt.Sprintf("%s at %s, %s", r.Commodity, r.Market, r.District)
	}
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Modal price (Rs/Quintal)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())

	if len(r.Series) > 0 {
		xys := make(plotter.XYs, len(r.Series))
		for i, pt := range r.Series {
			xys[i].X = float64(pt.Date.Unix())
			xys[i].Y = pt.ModalPrice
		}

		area, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("failed to build chart series: %w", err)
		}
		area.FillColor = areaFill
		area.LineStyle.Color = areaLine
		area.LineStyle.Width = vg.Points(1.5)
		p.Add(area)
		p.Y.Min = 0
	} else {
		p.Title.Text += " (no history)"
	}

	wt, err := p.WriterTo(ChartWidth, ChartHeight, "svg")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
