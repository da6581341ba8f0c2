// Package pipeline wires the trajectory reconstruction stages together:
// smoothing, planar projection, distance resampling, temporal differencing
// and kinematics estimation, in that fixed order.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/trajectory.report/internal/smooth"
)

// Config carries the column bindings and stage parameters for one pipeline
// run. All column references are late bound through this struct so the
// pipeline works against differently named source schemas; nothing falls
// back to guessing from naming conventions at run time.
//
// Fields are pointers so a partially populated config is safe: the Get*
// accessors supply the documented defaults, which match the reference
// logger schema.
type Config struct {
	LatCol     *string `json:"lat_col,omitempty"`
	LonCol     *string `json:"lon_col,omitempty"`
	XCol       *string `json:"x_col,omitempty"`
	YCol       *string `json:"y_col,omitempty"`
	HeadingCol *string `json:"heading_col,omitempty"`
	DtCol      *string `json:"dt_col,omitempty"`
	TimeCol    *string `json:"time_col,omitempty"`
	SpeedCol   *string `json:"speed_col,omitempty"`

	MinDistance     *float64 `json:"min_distance,omitempty"`
	SmoothingMethod *string  `json:"smoothing_method,omitempty"`

	UTMZone  *int  `json:"utm_zone,omitempty"`
	UTMNorth *bool `json:"utm_north,omitempty"`
}

// DegenerateDistanceError reports a non-positive resampling threshold.
type DegenerateDistanceError struct {
	MinDistance float64
}

func (e *DegenerateDistanceError) Error() string {
	return fmt.Sprintf("pipeline: min_distance must be positive, got %g", e.MinDistance)
}

// ParseOptions builds a Config from an explicit option-name to value
// mapping. Unknown option names are a construction-time error, never
// silently ignored.
func ParseOptions(options map[string]string) (*Config, error) {
	cfg := &Config{}
	for name, value := range options {
		v := value
		switch name {
		case "lat_col":
			cfg.LatCol = &v
		case "lon_col":
			cfg.LonCol = &v
		case "x_col":
			cfg.XCol = &v
		case "y_col":
			cfg.YCol = &v
		case "heading_col":
			cfg.HeadingCol = &v
		case "dt_col":
			cfg.DtCol = &v
		case "time_col":
			cfg.TimeCol = &v
		case "speed_col":
			cfg.SpeedCol = &v
		case "smoothing_method":
			cfg.SmoothingMethod = &v
		case "min_distance":
			d, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("pipeline: invalid min_distance %q: %w", value, err)
			}
			cfg.MinDistance = &d
		case "utm_zone":
			z, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("pipeline: invalid utm_zone %q: %w", value, err)
			}
			cfg.UTMZone = &z
		case "utm_north":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("pipeline: invalid utm_north %q: %w", value, err)
			}
			cfg.UTMNorth = &b
		default:
			return nil, fmt.Errorf("pipeline: unknown option %q", name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.MinDistance != nil && *c.MinDistance <= 0 {
		return &DegenerateDistanceError{MinDistance: *c.MinDistance}
	}
	if c.SmoothingMethod != nil && *c.SmoothingMethod != "" && !smooth.IsValidMethod(*c.SmoothingMethod) {
		return fmt.Errorf("pipeline: unknown smoothing_method %q (valid: %s)",
			*c.SmoothingMethod, strings.Join(smooth.ValidMethods, ", "))
	}
	if c.UTMZone != nil && (*c.UTMZone < 1 || *c.UTMZone > 60) {
		return fmt.Errorf("pipeline: utm_zone must be in 1..60, got %d", *c.UTMZone)
	}
	for name, col := range map[string]*string{
		"lat_col": c.LatCol, "lon_col": c.LonCol, "x_col": c.XCol,
		"y_col": c.YCol, "heading_col": c.HeadingCol, "dt_col": c.DtCol,
		"time_col": c.TimeCol, "speed_col": c.SpeedCol,
	} {
		if col != nil && *col == "" {
			return fmt.Errorf("pipeline: %s must not be empty", name)
		}
	}
	return nil
}

// GetLatCol returns the raw latitude column binding or the default.
func (c *Config) GetLatCol() string {
	if c.LatCol == nil {
		return "GPS_lat"
	}
	return *c.LatCol
}

// GetLonCol returns the raw longitude column binding or the default.
func (c *Config) GetLonCol() string {
	if c.LonCol == nil {
		return "GPS_lon"
	}
	return *c.LonCol
}

// GetXCol returns the planar easting column binding or the default.
func (c *Config) GetXCol() string {
	if c.XCol == nil {
		return "x"
	}
	return *c.XCol
}

// GetYCol returns the planar northing column binding or the default.
func (c *Config) GetYCol() string {
	if c.YCol == nil {
		return "y"
	}
	return *c.YCol
}

// GetHeadingCol returns the heading column binding or the default.
func (c *Config) GetHeadingCol() string {
	if c.HeadingCol == nil {
		return "heading_deg"
	}
	return *c.HeadingCol
}

// GetDtCol returns the time-delta column binding or the default.
func (c *Config) GetDtCol() string {
	if c.DtCol == nil {
		return "dt"
	}
	return *c.DtCol
}

// GetTimeCol returns the timestamp column binding or the default (the
// reference logger writes its clock to "DatumZeit").
func (c *Config) GetTimeCol() string {
	if c.TimeCol == nil {
		return "DatumZeit"
	}
	return *c.TimeCol
}

// GetSpeedCol returns the measured-speed column binding or the default (the
// reference logger records speed over ground in m/s under this name).
func (c *Config) GetSpeedCol() string {
	if c.SpeedCol == nil {
		return "Geschwindigkeit in m/s"
	}
	return *c.SpeedCol
}

// GetMinDistance returns the resampling threshold in metres or the default.
func (c *Config) GetMinDistance() float64 {
	if c.MinDistance == nil {
		return 1.0
	}
	return *c.MinDistance
}

// GetSmoothingMethod returns the configured smoothing method, or the empty
// string when no explicit selection was made.
func (c *Config) GetSmoothingMethod() string {
	if c.SmoothingMethod == nil {
		return ""
	}
	return *c.SmoothingMethod
}

// GetUTMZone returns the projection zone or the default (zone 33, the
// reference operating region).
func (c *Config) GetUTMZone() int {
	if c.UTMZone == nil {
		return 33
	}
	return *c.UTMZone
}

// GetUTMNorth returns the hemisphere convention or the default (northern).
func (c *Config) GetUTMNorth() bool {
	if c.UTMNorth == nil {
		return true
	}
	return *c.UTMNorth
}

// YawRateCol is the fixed output column for the yaw-rate estimator,
// matching the reference output schema.
const YawRateCol = "yaw_rate_deg_s"

// SelectedMethodCol records which smoothing variant fed the projector.
const SelectedMethodCol = "selected_smoothing_method"
