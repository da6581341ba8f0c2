package db

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/pipeline"
	"github.com/banshee-data/trajectory.report/internal/trace"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func processedTrace(t *testing.T) *trace.Trace {
	t.Helper()
	tr := trace.New(3)
	require.NoError(t, tr.SetFloats("x", []float64{500000, 500010, 500020}))
	require.NoError(t, tr.SetFloats("y", []float64{0, 0, 10}))
	require.NoError(t, tr.SetFloats("heading_deg", []float64{math.NaN(), 0, 90}))
	require.NoError(t, tr.SetFloats("dt", []float64{math.NaN(), 1, 1}))
	require.NoError(t, tr.SetFloats(pipeline.YawRateCol, []float64{math.NaN(), math.NaN(), 90}))
	require.NoError(t, tr.SetFloats("Geschwindigkeit in m/s", []float64{10, 10, 12}))
	require.NoError(t, tr.SetStrings(pipeline.SelectedMethodCol, []string{"savitzky", "savitzky", "savitzky"}))
	return tr
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := testDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// A second run must be a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestRecordAndListRuns(t *testing.T) {
	db := testDB(t)
	cfg, err := pipeline.ParseOptions(map[string]string{"min_distance": "2.5"})
	require.NoError(t, err)

	id, err := db.RecordRun("trip.csv", "2024-04-02", cfg, 10, processedTrace(t))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := db.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "trip.csv", r.Source)
	assert.Equal(t, "2024-04-02", r.Day)
	assert.Equal(t, "savitzky", r.SmoothingMethod)
	assert.Equal(t, 10, r.InputRows)
	assert.Equal(t, 3, r.OutputRows)
	assert.Contains(t, r.Params, "min_distance")
}

func TestGetRun(t *testing.T) {
	db := testDB(t)

	id, err := db.RecordRun("trip.csv", "", &pipeline.Config{}, 3, processedTrace(t))
	require.NoError(t, err)

	r, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, "trip.csv", r.Source)
	assert.Empty(t, r.Day)

	_, err = db.GetRun("no-such-run")
	assert.Error(t, err)
}

func TestLoadRunSamplesRoundTrip(t *testing.T) {
	db := testDB(t)

	id, err := db.RecordRun("trip.csv", "", &pipeline.Config{}, 3, processedTrace(t))
	require.NoError(t, err)

	tr, err := db.LoadRunSamples(id)
	require.NoError(t, err)
	require.Equal(t, 3, tr.NumRows())

	xs, err := tr.Floats("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{500000, 500010, 500020}, xs)

	// NaN cells round-trip through NULL.
	dts, err := tr.Floats("dt")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(dts[0]))
	assert.Equal(t, 1.0, dts[1])

	yaw, err := tr.Floats(pipeline.YawRateCol)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(yaw[0]))
	assert.True(t, math.IsNaN(yaw[1]))
	assert.Equal(t, 90.0, yaw[2])

	// Measured speed comes back under the fixed sample column name.
	speed, err := tr.Floats(SpeedSampleCol)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 12}, speed)
}

func TestRecordRunWithoutOptionalColumns(t *testing.T) {
	db := testDB(t)

	tr := trace.New(2)
	require.NoError(t, tr.SetFloats("x", []float64{0, 1}))
	require.NoError(t, tr.SetFloats("y", []float64{0, 1}))

	id, err := db.RecordRun("partial.csv", "", &pipeline.Config{}, 2, tr)
	require.NoError(t, err)

	loaded, err := db.LoadRunSamples(id)
	require.NoError(t, err)
	headings, err := loaded.Floats("heading_deg")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(headings[0]))
	assert.True(t, math.IsNaN(headings[1]))

	speed, err := loaded.Floats(SpeedSampleCol)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(speed[0]))
}
