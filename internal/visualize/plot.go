package visualize

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

// TrackPNG writes a PNG plot of the trace path in planar coordinates. The
// aspect ratio is left to the plot ranges; metres on both axes keep the
// shape readable enough for a quick visual check.
func TrackPNG(w io.Writer, tr *trace.Trace, xCol, yCol, title string) error {
	xs, err := tr.Floats(xCol)
	if err != nil {
		return err
	}
	ys, err := tr.Floats(yCol)
	if err != nil {
		return err
	}
	if tr.NumRows() == 0 {
		return fmt.Errorf("visualize: empty trace")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xCol + " (m)"
	p.Y.Label.Text = yCol + " (m)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(xs))
	for i := range pts {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build track line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)

	start, err := plotter.NewScatter(plotter.XYs{pts[0]})
	if err != nil {
		return fmt.Errorf("build start marker: %w", err)
	}
	start.GlyphStyle.Color = color.RGBA{G: 158, B: 68, A: 255}
	start.GlyphStyle.Radius = vg.Points(4)
	end, err := plotter.NewScatter(plotter.XYs{pts[len(pts)-1]})
	if err != nil {
		return fmt.Errorf("build end marker: %w", err)
	}
	end.GlyphStyle.Color = color.RGBA{R: 224, G: 49, B: 49, A: 255}
	end.GlyphStyle.Radius = vg.Points(4)
	p.Add(start, end)

	wt, err := p.WriterTo(24*vg.Centimeter, 18*vg.Centimeter, "png")
	if err != nil {
		return fmt.Errorf("render track plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
