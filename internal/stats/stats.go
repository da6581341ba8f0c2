// Package stats summarises a trace: row counts, time coverage, coordinate
// extents, and per-column numeric summaries including missing and zero
// value analysis.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/trace"
)

// ColumnSummary describes one float column.
type ColumnSummary struct {
	Name    string
	Missing int // NaN cells
	Zeros   int
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
}

// Report is a full dataset summary.
type Report struct {
	Rows    int
	Columns int

	HasTime   bool
	TimeStart time.Time
	TimeEnd   time.Time
	TimeRange time.Duration

	HasCoords bool
	LatMin    float64
	LatMax    float64
	LonMin    float64
	LonMax    float64

	Summaries []ColumnSummary
}

// Compute builds a report for tr. The time section is filled when timeCol
// exists (parsing it on demand); the coordinate section when both latCol
// and lonCol exist. Numeric summaries cover every float column.
func Compute(tr *trace.Trace, timeCol, latCol, lonCol string) (*Report, error) {
	r := &Report{
		Rows:    tr.NumRows(),
		Columns: len(tr.Columns()),
	}

	if tr.HasColumn(timeCol) && tr.NumRows() > 0 {
		if err := kinematics.ParseTimes(tr, timeCol); err != nil {
			return nil, err
		}
		ts, err := tr.Times(timeCol)
		if err != nil {
			return nil, err
		}
		r.HasTime = true
		r.TimeStart, r.TimeEnd = ts[0], ts[0]
		for _, v := range ts[1:] {
			if v.Before(r.TimeStart) {
				r.TimeStart = v
			}
			if v.After(r.TimeEnd) {
				r.TimeEnd = v
			}
		}
		r.TimeRange = r.TimeEnd.Sub(r.TimeStart)
	}

	if tr.HasColumn(latCol) && tr.HasColumn(lonCol) && tr.NumRows() > 0 {
		lat, err := tr.Floats(latCol)
		if err != nil {
			return nil, err
		}
		lon, err := tr.Floats(lonCol)
		if err != nil {
			return nil, err
		}
		if cl, co := dropNaN(lat), dropNaN(lon); len(cl) > 0 && len(co) > 0 {
			r.HasCoords = true
			r.LatMin, r.LatMax = floats.Min(cl), floats.Max(cl)
			r.LonMin, r.LonMax = floats.Min(co), floats.Max(co)
		}
	}

	for _, name := range tr.Columns() {
		vals, err := tr.Floats(name)
		if err != nil {
			continue // string or time column
		}
		summary := ColumnSummary{Name: name}
		for _, v := range vals {
			if math.IsNaN(v) {
				summary.Missing++
			} else if v == 0 {
				summary.Zeros++
			}
		}
		if clean := dropNaN(vals); len(clean) > 0 {
			summary.Min = floats.Min(clean)
			summary.Max = floats.Max(clean)
			summary.Mean = stat.Mean(clean, nil)
			summary.StdDev = stat.StdDev(clean, nil)
			if len(clean) == 1 {
				summary.StdDev = 0
			}
		}
		r.Summaries = append(r.Summaries, summary)
	}

	return r, nil
}

func dropNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// String renders the report as a plain-text block suitable for writing next
// to a processed trace file.
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Trace Statistics ===\n")
	fmt.Fprintf(&b, "Number of Rows: %d\n", r.Rows)
	fmt.Fprintf(&b, "Number of Columns: %d\n\n", r.Columns)

	if r.HasTime {
		fmt.Fprintf(&b, "=== Timestamp ===\n")
		fmt.Fprintf(&b, "Earliest: %s\n", r.TimeStart.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "Latest:   %s\n", r.TimeEnd.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "Range:    %s\n\n", r.TimeRange)
	}

	if r.HasCoords {
		fmt.Fprintf(&b, "=== Coordinates ===\n")
		fmt.Fprintf(&b, "Latitude:  min %.6f  max %.6f  range %.6f\n", r.LatMin, r.LatMax, r.LatMax-r.LatMin)
		fmt.Fprintf(&b, "Longitude: min %.6f  max %.6f  range %.6f\n\n", r.LonMin, r.LonMax, r.LonMax-r.LonMin)
	}

	if len(r.Summaries) > 0 {
		fmt.Fprintf(&b, "=== Numeric Columns ===\n")
		fmt.Fprintf(&b, "%-28s %8s %8s %12s %12s %12s %12s\n",
			"column", "missing", "zeros", "min", "max", "mean", "stddev")
		for _, s := range r.Summaries {
			fmt.Fprintf(&b, "%-28s %8d %8d %12.4f %12.4f %12.4f %12.4f\n",
				s.Name, s.Missing, s.Zeros, s.Min, s.Max, s.Mean, s.StdDev)
		}
	}

	return b.String()
}
