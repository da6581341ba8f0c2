package visualize

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

func planarTrace(t *testing.T) *trace.Trace {
	t.Helper()
	tr := trace.New(4)
	require.NoError(t, tr.SetFloats("x", []float64{0, 1, 2, 3}))
	require.NoError(t, tr.SetFloats("y", []float64{0, 1, 4, 9}))
	require.NoError(t, tr.SetFloats("speed", []float64{math.NaN(), 5, 10, 15}))
	return tr
}

func TestTrackScatter(t *testing.T) {
	t.Parallel()

	sc, err := TrackScatter(planarTrace(t), "x", "y", "", "track")
	require.NoError(t, err)
	require.Len(t, sc.MultiSeries, 1)
	assert.Len(t, sc.MultiSeries[0].Data, 4)
}

func TestTrackScatterSkipsNaNColourValues(t *testing.T) {
	t.Parallel()

	sc, err := TrackScatter(planarTrace(t), "x", "y", "speed", "track by speed")
	require.NoError(t, err)
	require.Len(t, sc.MultiSeries, 1)
	assert.Len(t, sc.MultiSeries[0].Data, 3)
}

func TestTrackScatterMissingColumn(t *testing.T) {
	t.Parallel()

	var missing *trace.MissingColumnError
	_, err := TrackScatter(planarTrace(t), "x", "nope", "", "track")
	require.ErrorAs(t, err, &missing)
}

func TestRenderPage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := RenderPage(&buf, planarTrace(t), PageOptions{
		XCol:       "x",
		YCol:       "y",
		SpeedCol:   "speed",
		YawRateCol: "yaw_rate_deg_s", // absent, chart skipped
		Title:      "trip 42",
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "trip 42")
	assert.Contains(t, html, "trip 42 by speed")
	assert.NotContains(t, html, "by yaw rate")
}

func TestTrackPNG(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, TrackPNG(&buf, planarTrace(t), "x", "y", "trip 42"))

	// PNG signature.
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, buf.Bytes()[:4])
}

func TestTrackPNGEmptyTrace(t *testing.T) {
	t.Parallel()

	tr := trace.New(0)
	require.NoError(t, tr.SetFloats("x", nil))
	require.NoError(t, tr.SetFloats("y", nil))

	var buf bytes.Buffer
	assert.Error(t, TrackPNG(&buf, tr, "x", "y", ""))
}
