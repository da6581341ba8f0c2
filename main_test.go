package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/pipeline"
	"github.com/banshee-data/trajectory.report/internal/trace"
)

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps("smooth, project,resample,dt,kinematics")
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Step{
		pipeline.StepSmooth, pipeline.StepProject, pipeline.StepResample,
		pipeline.StepDt, pipeline.StepKinematics,
	}, steps)
}

func TestParseStepsRejectsUnknown(t *testing.T) {
	_, err := parseSteps("project,teleport")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}

func TestParseStepsRejectsEmpty(t *testing.T) {
	_, err := parseSteps(" , ")
	assert.Error(t, err)
}

func TestStepSuffixes(t *testing.T) {
	suffixes := stepSuffixes([]pipeline.Step{pipeline.StepProject, pipeline.StepResample})
	assert.Equal(t, []string{"planar", "resampled"}, suffixes)
}

func TestSortedDayKeys(t *testing.T) {
	traces := map[string]*trace.Trace{
		"2024-04-03": trace.New(0),
		"2024-04-01": trace.New(0),
		"2024-04-02": trace.New(0),
	}
	assert.Equal(t, []string{"2024-04-01", "2024-04-02", "2024-04-03"}, sortedDayKeys(traces))
}

// TestArtifactsCarrySpeed checks that the measured speed column makes it
// into both the GeoJSON track and the chart page.
func TestArtifactsCarrySpeed(t *testing.T) {
	restoreStats, restoreGeoJSON, restoreHTML, restorePNG := *writeStats, *writeGeoJSON, *writeHTML, *writePNG
	defer func() {
		*writeStats, *writeGeoJSON, *writeHTML, *writePNG = restoreStats, restoreGeoJSON, restoreHTML, restorePNG
	}()
	*writeStats = false
	*writeGeoJSON = true
	*writeHTML = true
	*writePNG = false

	tr := trace.New(3)
	require.NoError(t, tr.SetFloats("GPS_lat", []float64{52.52, 52.521, 52.522}))
	require.NoError(t, tr.SetFloats("GPS_lon", []float64{13.40, 13.401, 13.402}))
	require.NoError(t, tr.SetFloats("x", []float64{0, 70, 140}))
	require.NoError(t, tr.SetFloats("y", []float64{0, 70, 140}))
	require.NoError(t, tr.SetFloats("Geschwindigkeit in m/s", []float64{10, 11, 12}))

	cfg, err := pipeline.ParseOptions(nil)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "trip_planar.csv")
	require.NoError(t, writeArtifacts(cfg, outPath, tr))

	base := filepath.Join(filepath.Dir(outPath), "trip_planar")
	geojson, err := os.ReadFile(base + ".geojson")
	require.NoError(t, err)
	assert.Contains(t, string(geojson), "speed_kmh")

	html, err := os.ReadFile(base + ".html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "by speed")
}
