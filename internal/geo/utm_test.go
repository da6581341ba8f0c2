package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

func TestNewProjectorValidatesZone(t *testing.T) {
	t.Parallel()

	for _, zone := range []int{0, -3, 61} {
		_, err := NewProjector(zone, true)
		assert.Error(t, err, "zone %d", zone)
	}

	p, err := NewProjector(33, true)
	require.NoError(t, err)
	assert.Equal(t, 33, p.Zone())
}

func TestProjectCentralMeridian(t *testing.T) {
	t.Parallel()

	// Zone 33 central meridian is 15°E: easting must be exactly the false
	// easting, independent of latitude.
	p, err := NewProjector(33, true)
	require.NoError(t, err)

	for _, lat := range []float64{0, 12.5, 47.1, 52.52, 68.9} {
		x, _ := p.Project(lat, 15.0)
		assert.InDelta(t, 500000.0, x, 1e-6, "lat %v", lat)
	}
}

func TestProjectEquatorNorthing(t *testing.T) {
	t.Parallel()

	p, err := NewProjector(33, true)
	require.NoError(t, err)

	_, y := p.Project(0, 15.0)
	assert.InDelta(t, 0.0, y, 1e-6)

	// Southern hemisphere convention adds the false northing.
	ps, err := NewProjector(33, false)
	require.NoError(t, err)
	_, ys := ps.Project(0, 15.0)
	assert.InDelta(t, 10000000.0, ys, 1e-6)
}

func TestProjectMonotonic(t *testing.T) {
	t.Parallel()

	p, err := NewProjector(33, true)
	require.NoError(t, err)

	x1, y1 := p.Project(52.50, 13.40)
	x2, _ := p.Project(52.50, 13.41) // further east
	_, y3 := p.Project(52.51, 13.40) // further north

	assert.Greater(t, x2, x1)
	assert.Greater(t, y3, y1)
}

// haversine great-circle distance on a sphere, metres. Good to a few parts
// per thousand against the ellipsoid, which is enough to sanity-check the
// projection's local scale.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const r = 6371000.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * r * math.Asin(math.Sqrt(s))
}

func TestProjectLocalScale(t *testing.T) {
	t.Parallel()

	p, err := NewProjector(33, true)
	require.NoError(t, err)

	// Two nearby points in the reference operating region. Planar distance
	// must match the great-circle distance to within spherical-model error.
	lat1, lon1 := 52.5200, 13.4050
	lat2, lon2 := 52.5210, 13.4065

	x1, y1 := p.Project(lat1, lon1)
	x2, y2 := p.Project(lat2, lon2)
	planar := math.Hypot(x2-x1, y2-y1)
	great := haversine(lat1, lon1, lat2, lon2)

	assert.InEpsilon(t, great, planar, 0.01)
}

func TestProjectTrace(t *testing.T) {
	t.Parallel()

	tr := trace.New(2)
	require.NoError(t, tr.SetFloats("GPS_lat", []float64{52.52, 52.53}))
	require.NoError(t, tr.SetFloats("GPS_lon", []float64{13.40, 13.41}))

	p, err := NewProjector(33, true)
	require.NoError(t, err)
	require.NoError(t, p.ProjectTrace(tr, "GPS_lat", "GPS_lon", "x", "y"))

	xs, err := tr.Floats("x")
	require.NoError(t, err)
	ys, err := tr.Floats("y")
	require.NoError(t, err)
	assert.Len(t, xs, 2)
	assert.Len(t, ys, 2)

	wantX, wantY := p.Project(52.52, 13.40)
	assert.Equal(t, wantX, xs[0])
	assert.Equal(t, wantY, ys[0])
}

func TestProjectTraceMissingColumn(t *testing.T) {
	t.Parallel()

	tr := trace.New(1)
	require.NoError(t, tr.SetFloats("GPS_lat", []float64{52.52}))

	p, err := NewProjector(33, true)
	require.NoError(t, err)

	err = p.ProjectTrace(tr, "GPS_lat", "GPS_lon", "x", "y")
	var missing *trace.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "GPS_lon", missing.Column)
}
