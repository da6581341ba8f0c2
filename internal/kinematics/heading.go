package kinematics

import (
	"math"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

// HeadingFromXY writes the direction of travel between consecutive planar
// points to headingCol, in degrees normalised to [0, 360). Due east is 0°
// and due north is 90°. The first sample has no predecessor and gets NaN.
func HeadingFromXY(tr *trace.Trace, xCol, yCol, headingCol string) error {
	xs, err := tr.Floats(xCol)
	if err != nil {
		return err
	}
	ys, err := tr.Floats(yCol)
	if err != nil {
		return err
	}

	heading := make([]float64, tr.NumRows())
	if len(heading) > 0 {
		heading[0] = math.NaN()
	}
	for i := 1; i < len(xs); i++ {
		deg := math.Atan2(ys[i]-ys[i-1], xs[i]-xs[i-1]) * 180 / math.Pi
		heading[i] = normalizeDeg(deg)
	}
	return tr.SetFloats(headingCol, heading)
}

// normalizeDeg maps any angle in degrees to [0, 360).
func normalizeDeg(deg float64) float64 {
	m := math.Mod(deg+360, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// wrapDeg maps an angular difference in degrees to the minimal-rotation
// representative in [-180, 180), so the 359°→1° transition reads as +2°
// rather than -358°.
func wrapDeg(diff float64) float64 {
	m := math.Mod(diff+180, 360)
	if m < 0 {
		m += 360
	}
	return m - 180
}
