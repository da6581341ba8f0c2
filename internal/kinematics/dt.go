// Package kinematics derives per-sample time deltas, headings and yaw rates
// from a resampled trace.
//
// All operations work on the retained sample sequence and are strict
// ordered scans: every output element depends on the immediately preceding
// retained sample, so none of this parallelises. Undefined values (the first
// sample, zero dt) are NaN or ±Inf sentinels, never silent zeros.
package kinematics

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

// TimestampParseError reports an unparseable value in the timestamp column.
type TimestampParseError struct {
	Row   int
	Value string
	Err   error
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("kinematics: cannot parse timestamp %q at row %d: %v", e.Value, e.Row, e.Err)
}

func (e *TimestampParseError) Unwrap() error { return e.Err }

// timestampLayouts are tried in order. The space-separated form is what the
// reference vehicle logger writes (fractional seconds optional).
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// ParseTimes parses the raw string timestamp column into a time series
// stored under the same name. Already-parsed columns are left alone.
// Returns a trace.MissingColumnError when the column is absent and a
// TimestampParseError on the first unparseable value.
func ParseTimes(tr *trace.Trace, timeCol string) error {
	if _, err := tr.Times(timeCol); err == nil {
		return nil
	}
	raw, err := tr.Strings(timeCol)
	if err != nil {
		return err
	}

	parsed := make([]time.Time, len(raw))
	for i, v := range raw {
		var ts time.Time
		var parseErr error
		for _, layout := range timestampLayouts {
			ts, parseErr = time.Parse(layout, v)
			if parseErr == nil {
				break
			}
		}
		if parseErr != nil {
			return &TimestampParseError{Row: i, Value: v, Err: parseErr}
		}
		parsed[i] = ts
	}
	return tr.SetTimes(timeCol, parsed)
}

// ComputeDt parses timeCol if needed and writes per-row elapsed seconds to
// dtCol. dt[0] is NaN (no predecessor). The trace is not sorted here: the
// caller owns sample order, and an unsorted trace yields negative dt values
// that downstream consumers must treat as a data-quality signal.
func ComputeDt(tr *trace.Trace, timeCol, dtCol string) error {
	if err := ParseTimes(tr, timeCol); err != nil {
		return err
	}
	ts, err := tr.Times(timeCol)
	if err != nil {
		return err
	}

	dt := make([]float64, tr.NumRows())
	if len(dt) > 0 {
		dt[0] = math.NaN()
	}
	for i := 1; i < len(ts); i++ {
		dt[i] = ts[i].Sub(ts[i-1]).Seconds()
	}
	return tr.SetFloats(dtCol, dt)
}
