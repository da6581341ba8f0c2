// Package resample spatially downsamples a trace so retained points are at
// least a minimum planar distance apart.
package resample

import (
	"math"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

// MinDistanceColumn is stamped onto the output so saved files record which
// threshold produced them.
const MinDistanceColumn = "min_distance"

// ByDistance returns the subsequence of tr in which each retained sample is
// at least minDistance metres from the previously *retained* sample. The
// first sample is always retained and an empty trace passes through
// unchanged.
//
// Distance is measured against the last retained point, not the immediately
// preceding raw point. This greedy streaming filter is a deliberate
// approximation of minimum-separation spacing: retained gaps can exceed the
// threshold by up to one dropped hop, and downstream statistics are
// calibrated against exactly this behaviour.
//
// minDistance must be validated as positive by the caller (the pipeline
// config rejects non-positive values); a zero threshold retains every row.
func ByDistance(tr *trace.Trace, xCol, yCol string, minDistance float64) (*trace.Trace, error) {
	if tr.NumRows() == 0 {
		return tr, nil
	}

	xs, err := tr.Floats(xCol)
	if err != nil {
		return nil, err
	}
	ys, err := tr.Floats(yCol)
	if err != nil {
		return nil, err
	}

	retained := []int{0}
	lastX, lastY := xs[0], ys[0]
	for i := 1; i < tr.NumRows(); i++ {
		if math.Hypot(xs[i]-lastX, ys[i]-lastY) >= minDistance {
			retained = append(retained, i)
			lastX, lastY = xs[i], ys[i]
		}
	}

	out, err := tr.Select(retained)
	if err != nil {
		return nil, err
	}
	out.SetConstFloat(MinDistanceColumn, minDistance)
	return out, nil
}
