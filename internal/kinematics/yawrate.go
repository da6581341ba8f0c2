package kinematics

import (
	"math"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

// YawRateFromHeading writes the signed heading change rate in degrees per
// second to yawCol. The heading source is any column in degrees: the
// position-derived heading written by HeadingFromXY or a directly sensed
// heading signal from the logger.
//
// Consecutive heading differences are wrapped to [-180, 180) before dividing
// by dt, so crossing the 0°/360° discontinuity produces the small rotation,
// not a near-full turn. A zero dt yields ±Inf (or NaN for a zero difference);
// these sentinels propagate and are filtered by an explicit downstream step
// such as ClipYawRate, never silently zeroed here.
func YawRateFromHeading(tr *trace.Trace, headingCol, dtCol, yawCol string) error {
	heading, err := tr.Floats(headingCol)
	if err != nil {
		return err
	}
	dt, err := tr.Floats(dtCol)
	if err != nil {
		return err
	}

	yaw := make([]float64, tr.NumRows())
	if len(yaw) > 0 {
		yaw[0] = math.NaN()
	}
	for i := 1; i < len(heading); i++ {
		yaw[i] = wrapDeg(heading[i]-heading[i-1]) / dt[i]
	}
	return tr.SetFloats(yawCol, yaw)
}

// ClipYawRate returns the rows whose yaw rate lies within [-maxAbs, maxAbs].
// Rows with NaN or infinite yaw rate are dropped along with the outliers.
// This is the post-hoc outlier filter applied by the reference analysis
// (±3°/s); it is a separate explicit step, not part of the estimator.
func ClipYawRate(tr *trace.Trace, yawCol string, maxAbs float64) (*trace.Trace, error) {
	yaw, err := tr.Floats(yawCol)
	if err != nil {
		return nil, err
	}

	var indices []int
	for i, v := range yaw {
		if v >= -maxAbs && v <= maxAbs {
			indices = append(indices, i)
		}
	}
	return tr.Select(indices)
}
