// Package export renders a processed trace as GeoJSON for map consumers.
// The output carries the track geometry, start/end markers and timestamped
// per-point features; drawing the map itself (tiles, styling) is outside
// this repository.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/trace"
	"github.com/banshee-data/trajectory.report/internal/units"
)

// TrackOptions binds the trace columns used for the export. SpeedCol and
// TimeCol are optional: absent columns simply omit the matching properties.
// A positive SimplifyTolerance (degrees) runs Douglas-Peucker on the track
// line; the per-point features always keep every sample.
type TrackOptions struct {
	LatCol            string
	LonCol            string
	TimeCol           string
	SpeedCol          string // metres per second in the trace
	SpeedUnits        string // output units for speed properties; empty means km/h
	SimplifyTolerance float64
}

// speedProperty maps the output units to the per-point property key.
func speedProperty(unit string) string {
	switch unit {
	case units.MPH:
		return "speed_mph"
	case units.MPS:
		return "speed_mps"
	default:
		return "speed_kmh"
	}
}

// TrackFeatureCollection builds a GeoJSON FeatureCollection for the trace:
// one LineString for the path, start and end point markers, and one Point
// feature per sample with time and speed properties.
func TrackFeatureCollection(tr *trace.Trace, opts TrackOptions) (*geojson.FeatureCollection, error) {
	lat, err := tr.Floats(opts.LatCol)
	if err != nil {
		return nil, err
	}
	lon, err := tr.Floats(opts.LonCol)
	if err != nil {
		return nil, err
	}
	if tr.NumRows() == 0 {
		return nil, fmt.Errorf("export: empty trace")
	}

	var ts []time.Time
	if opts.TimeCol != "" && tr.HasColumn(opts.TimeCol) {
		if err := kinematics.ParseTimes(tr, opts.TimeCol); err != nil {
			return nil, err
		}
		if ts, err = tr.Times(opts.TimeCol); err != nil {
			return nil, err
		}
	}
	speedUnit := opts.SpeedUnits
	if speedUnit == "" {
		speedUnit = units.KPH
	}
	if !units.IsValid(speedUnit) {
		return nil, fmt.Errorf("export: invalid speed units %q (valid: %s)",
			opts.SpeedUnits, units.GetValidUnitsString())
	}
	var speed []float64
	if opts.SpeedCol != "" && tr.HasColumn(opts.SpeedCol) {
		if speed, err = tr.Floats(opts.SpeedCol); err != nil {
			return nil, err
		}
	}

	line := make(orb.LineString, tr.NumRows())
	for i := range line {
		line[i] = orb.Point{lon[i], lat[i]}
	}

	fc := geojson.NewFeatureCollection()

	trackGeom := orb.Geometry(line)
	if opts.SimplifyTolerance > 0 && len(line) > 2 {
		trackGeom = simplify.DouglasPeucker(opts.SimplifyTolerance).Simplify(line.Clone())
	}
	track := geojson.NewFeature(trackGeom)
	track.Properties["name"] = "track"
	fc.Append(track)

	start := geojson.NewFeature(orb.Point{lon[0], lat[0]})
	start.Properties["name"] = "start"
	end := geojson.NewFeature(orb.Point{lon[len(lon)-1], lat[len(lat)-1]})
	end.Properties["name"] = "end"
	if ts != nil {
		start.Properties["time"] = ts[0].Format(time.RFC3339)
		end.Properties["time"] = ts[len(ts)-1].Format(time.RFC3339)
	}
	fc.Append(start)
	fc.Append(end)

	for i := 0; i < tr.NumRows(); i++ {
		f := geojson.NewFeature(orb.Point{lon[i], lat[i]})
		if ts != nil {
			f.Properties["time"] = ts[i].Format(time.RFC3339)
		}
		if speed != nil {
			f.Properties[speedProperty(speedUnit)] = units.ConvertSpeed(speed[i], speedUnit)
		}
		fc.Append(f)
	}

	return fc, nil
}

// WriteTrack writes the trace's FeatureCollection as JSON.
func WriteTrack(w io.Writer, tr *trace.Trace, opts TrackOptions) error {
	fc, err := TrackFeatureCollection(tr, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	return enc.Encode(fc)
}
