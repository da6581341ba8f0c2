// Package visualize renders processed traces as charts: an HTML page of
// go-echarts scatter plots (uniform track, speed-coloured, yaw-rate
// coloured) and a PNG track plot. All renderers write to an io.Writer; file
// and HTTP plumbing live with the caller.
package visualize

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

// PageOptions selects the columns behind the rendered charts. SpeedCol and
// YawRateCol are optional; their charts are skipped when the column is
// absent.
type PageOptions struct {
	XCol       string
	YCol       string
	SpeedCol   string
	YawRateCol string
	Title      string
}

// TrackScatter builds one XY scatter of the trace path. When colorCol is
// non-empty a visual map over that column colours the points; rows where
// the colour value is NaN or infinite are skipped so sentinel values never
// distort the scale.
func TrackScatter(tr *trace.Trace, xCol, yCol, colorCol, title string) (*charts.Scatter, error) {
	xs, err := tr.Floats(xCol)
	if err != nil {
		return nil, err
	}
	ys, err := tr.Floats(yCol)
	if err != nil {
		return nil, err
	}
	var colors []float64
	if colorCol != "" {
		if colors, err = tr.Floats(colorCol); err != nil {
			return nil, err
		}
	}

	data := make([]opts.ScatterData, 0, tr.NumRows())
	colorMin, colorMax := math.Inf(1), math.Inf(-1)
	for i := range xs {
		if colors == nil {
			data = append(data, opts.ScatterData{Value: []interface{}{xs[i], ys[i]}})
			continue
		}
		c := colors[i]
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		if c < colorMin {
			colorMin = c
		}
		if c > colorMax {
			colorMax = c
		}
		data = append(data, opts.ScatterData{Value: []interface{}{xs[i], ys[i], c}})
	}

	scatter := charts.NewScatter()
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d points", len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xCol + " (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yCol + " (m)", NameLocation: "middle", NameGap: 40}),
	}
	if colors != nil && colorMin <= colorMax {
		global = append(global, charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(colorMin),
			Max:        float32(colorMax),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#2f9e44", "#ffd43b", "#e03131"}},
		}))
	}
	scatter.SetGlobalOptions(global...)
	scatter.AddSeries(title, data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter, nil
}

// RenderPage writes one HTML page holding the track chart plus the
// speed-coloured and yaw-rate-coloured variants where those columns exist.
func RenderPage(w io.Writer, tr *trace.Trace, po PageOptions) error {
	title := po.Title
	if title == "" {
		title = "Trajectory"
	}

	track, err := TrackScatter(tr, po.XCol, po.YCol, "", title)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(track)

	if po.SpeedCol != "" && tr.HasColumn(po.SpeedCol) {
		speed, err := TrackScatter(tr, po.XCol, po.YCol, po.SpeedCol, title+" by speed")
		if err != nil {
			return err
		}
		page.AddCharts(speed)
	}
	if po.YawRateCol != "" && tr.HasColumn(po.YawRateCol) {
		yaw, err := TrackScatter(tr, po.XCol, po.YCol, po.YawRateCol, title+" by yaw rate")
		if err != nil {
			return err
		}
		page.AddCharts(yaw)
	}

	return page.Render(w)
}
