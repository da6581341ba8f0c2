package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

func gpsTrace(t *testing.T, n int) *trace.Trace {
	t.Helper()
	lat := make([]float64, n)
	lon := make([]float64, n)
	ts := make([]string, n)
	speed := make([]float64, n)
	for i := range lat {
		lat[i] = 52.52 + 0.001*float64(i)
		lon[i] = 13.40 + 0.001*float64(i)
		ts[i] = "2024-04-02 08:00:0" + string(rune('0'+i%10))
		speed[i] = 10
	}
	tr := trace.New(n)
	require.NoError(t, tr.SetFloats("GPS_lat", lat))
	require.NoError(t, tr.SetFloats("GPS_lon", lon))
	require.NoError(t, tr.SetStrings("DatumZeit", ts))
	require.NoError(t, tr.SetFloats("Geschwindigkeit in m/s", speed))
	return tr
}

func TestTrackFeatureCollection(t *testing.T) {
	t.Parallel()

	tr := gpsTrace(t, 5)
	fc, err := TrackFeatureCollection(tr, TrackOptions{
		LatCol:   "GPS_lat",
		LonCol:   "GPS_lon",
		TimeCol:  "DatumZeit",
		SpeedCol: "Geschwindigkeit in m/s",
	})
	require.NoError(t, err)

	// Track line + start + end + one point per sample.
	require.Len(t, fc.Features, 1+2+5)

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, line, 5)
	assert.Equal(t, orb.Point{13.40, 52.52}, line[0])

	assert.Equal(t, "start", fc.Features[1].Properties["name"])
	assert.Equal(t, "end", fc.Features[2].Properties["name"])

	point := fc.Features[3]
	assert.InDelta(t, 36.0, point.Properties["speed_kmh"], 1e-9)
	assert.NotEmpty(t, point.Properties["time"])
}

func TestTrackFeatureCollectionWithoutOptionalColumns(t *testing.T) {
	t.Parallel()

	tr := trace.New(2)
	require.NoError(t, tr.SetFloats("GPS_lat", []float64{52.52, 52.53}))
	require.NoError(t, tr.SetFloats("GPS_lon", []float64{13.40, 13.41}))

	fc, err := TrackFeatureCollection(tr, TrackOptions{LatCol: "GPS_lat", LonCol: "GPS_lon"})
	require.NoError(t, err)
	require.Len(t, fc.Features, 5)

	point := fc.Features[3]
	assert.NotContains(t, point.Properties, "speed_kmh")
	assert.NotContains(t, point.Properties, "time")
}

func TestTrackFeatureCollectionSimplify(t *testing.T) {
	t.Parallel()

	// Collinear interior points vanish under Douglas-Peucker, but the
	// per-point features all survive.
	n := 9
	tr := trace.New(n)
	lat := make([]float64, n)
	lon := make([]float64, n)
	for i := range lat {
		lat[i] = 52.52
		lon[i] = 13.40 + 0.001*float64(i)
	}
	require.NoError(t, tr.SetFloats("GPS_lat", lat))
	require.NoError(t, tr.SetFloats("GPS_lon", lon))

	fc, err := TrackFeatureCollection(tr, TrackOptions{
		LatCol: "GPS_lat", LonCol: "GPS_lon", SimplifyTolerance: 1e-6,
	})
	require.NoError(t, err)

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, line, 2)
	assert.Len(t, fc.Features, 1+2+n)
}

func TestTrackFeatureCollectionSpeedUnits(t *testing.T) {
	t.Parallel()

	tr := gpsTrace(t, 3)
	fc, err := TrackFeatureCollection(tr, TrackOptions{
		LatCol:     "GPS_lat",
		LonCol:     "GPS_lon",
		SpeedCol:   "Geschwindigkeit in m/s",
		SpeedUnits: "mph",
	})
	require.NoError(t, err)

	point := fc.Features[3]
	assert.NotContains(t, point.Properties, "speed_kmh")
	assert.InDelta(t, 22.369362920544, point.Properties["speed_mph"], 1e-9)
}

func TestTrackFeatureCollectionRejectsUnknownUnits(t *testing.T) {
	t.Parallel()

	_, err := TrackFeatureCollection(gpsTrace(t, 3), TrackOptions{
		LatCol:     "GPS_lat",
		LonCol:     "GPS_lon",
		SpeedCol:   "Geschwindigkeit in m/s",
		SpeedUnits: "furlongs",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "furlongs")
	assert.Contains(t, err.Error(), "mph")
}

func TestTrackErrors(t *testing.T) {
	t.Parallel()

	var missing *trace.MissingColumnError
	_, err := TrackFeatureCollection(trace.New(1), TrackOptions{LatCol: "GPS_lat", LonCol: "GPS_lon"})
	require.ErrorAs(t, err, &missing)

	empty := trace.New(0)
	require.NoError(t, empty.SetFloats("GPS_lat", nil))
	require.NoError(t, empty.SetFloats("GPS_lon", nil))
	_, err = TrackFeatureCollection(empty, TrackOptions{LatCol: "GPS_lat", LonCol: "GPS_lon"})
	assert.Error(t, err)
}

func TestWriteTrack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTrack(&buf, gpsTrace(t, 3), TrackOptions{
		LatCol: "GPS_lat", LonCol: "GPS_lon",
	}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
}
