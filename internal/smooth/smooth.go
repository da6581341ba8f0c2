// Package smooth denoises raw position columns before projection.
//
// Two methods are supported, matching the reference processing chain: a
// Savitzky-Golay local polynomial regression (window 51, order 2) and a
// Gaussian kernel convolution (sigma 2). Smoothed values are written to new
// columns named <col>_smooth_<method>; the raw columns are never mutated so
// the variants stay comparable.
package smooth

import (
	"fmt"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

// Method constants.
const (
	MethodSavitzky = "savitzky"
	MethodGaussian = "gaussian"
)

// Default filter parameters, matching the reference chain.
const (
	DefaultSavitzkyWindow    = 51
	DefaultSavitzkyPolyOrder = 2
	DefaultGaussianSigma     = 2.0
)

// ValidMethods contains all valid smoothing method values.
var ValidMethods = []string{MethodSavitzky, MethodGaussian}

// IsValidMethod checks if the given method is in the list of valid methods.
func IsValidMethod(method string) bool {
	for _, m := range ValidMethods {
		if method == m {
			return true
		}
	}
	return false
}

// SmoothingWindowError reports that a trace is too short for the requested
// smoothing window. Callers must either skip smoothing or shrink the window.
type SmoothingWindowError struct {
	Window int
	Length int
}

func (e *SmoothingWindowError) Error() string {
	return fmt.Sprintf("smooth: window %d does not fit trace of %d samples", e.Window, e.Length)
}

// ColumnName returns the output column name for a smoothed variant of col.
func ColumnName(col, method string) string {
	return col + "_smooth_" + method
}

// SmoothTrace smooths latCol and lonCol with the given method and writes the
// results to the matching _smooth_<method> columns. Returns a
// trace.MissingColumnError if either source column is absent, and a
// SmoothingWindowError if the trace is shorter than the Savitzky-Golay
// window.
func SmoothTrace(tr *trace.Trace, method, latCol, lonCol string) error {
	lat, err := tr.Floats(latCol)
	if err != nil {
		return err
	}
	lon, err := tr.Floats(lonCol)
	if err != nil {
		return err
	}

	var smoothLat, smoothLon []float64
	switch method {
	case MethodSavitzky:
		smoothLat, err = SavitzkyGolay(lat, DefaultSavitzkyWindow, DefaultSavitzkyPolyOrder)
		if err != nil {
			return err
		}
		smoothLon, err = SavitzkyGolay(lon, DefaultSavitzkyWindow, DefaultSavitzkyPolyOrder)
		if err != nil {
			return err
		}
	case MethodGaussian:
		smoothLat = Gaussian(lat, DefaultGaussianSigma)
		smoothLon = Gaussian(lon, DefaultGaussianSigma)
	default:
		return fmt.Errorf("smooth: unknown method %q (valid: %v)", method, ValidMethods)
	}

	if err := tr.SetFloats(ColumnName(latCol, method), smoothLat); err != nil {
		return err
	}
	return tr.SetFloats(ColumnName(lonCol, method), smoothLon)
}
