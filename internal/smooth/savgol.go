package smooth

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SavitzkyGolay smooths vals with a local least-squares polynomial fit of
// the given order over a sliding window. The window must be odd and larger
// than the polynomial order. Interior points use the precomputed convolution
// coefficients; the first and last half-window are filled by evaluating a
// polynomial fitted to the edge window, so a series that is exactly a
// polynomial of the given order is reproduced unchanged.
//
// Returns a SmoothingWindowError when the series is shorter than the window.
func SavitzkyGolay(vals []float64, window, order int) ([]float64, error) {
	if window%2 == 0 || window < 1 {
		return nil, fmt.Errorf("smooth: savitzky window must be odd and positive, got %d", window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("smooth: savitzky polynomial order %d invalid for window %d", order, window)
	}
	if len(vals) < window {
		return nil, &SmoothingWindowError{Window: window, Length: len(vals)}
	}

	half := window / 2
	coeffs, err := savgolCoefficients(window, order)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(vals))
	for i := half; i < len(vals)-half; i++ {
		out[i] = floats.Dot(coeffs, vals[i-half:i+half+1])
	}

	// Leading edge: fit the first window and evaluate at offsets 0..half-1.
	at := make([]float64, half)
	for i := range at {
		at[i] = float64(i)
	}
	head, err := polyfitEval(vals[:window], order, at)
	if err != nil {
		return nil, err
	}
	copy(out[:half], head)

	// Trailing edge: fit the last window and evaluate its tail offsets.
	for i := range at {
		at[i] = float64(window - half + i)
	}
	tail, err := polyfitEval(vals[len(vals)-window:], order, at)
	if err != nil {
		return nil, err
	}
	copy(out[len(out)-half:], tail)

	return out, nil
}

// savgolCoefficients returns the central convolution weights: the first row
// of (AᵀA)⁻¹Aᵀ for the Vandermonde design matrix A over window offsets
// centred on zero.
func savgolCoefficients(window, order int) ([]float64, error) {
	half := window / 2
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		v := 1.0
		for k := 0; k <= order; k++ {
			a.Set(i, k, v)
			v *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("smooth: singular design matrix for window %d order %d: %w", window, order, err)
	}
	var pinv mat.Dense
	pinv.Mul(&inv, a.T())
	return mat.Row(nil, 0, &pinv), nil
}

// polyfitEval fits a polynomial of the given order to y (sampled at x = 0,
// 1, ..., len(y)-1) and evaluates it at the given offsets.
func polyfitEval(y []float64, order int, at []float64) ([]float64, error) {
	a := mat.NewDense(len(y), order+1, nil)
	for i := range y {
		x := float64(i)
		v := 1.0
		for k := 0; k <= order; k++ {
			a.Set(i, k, v)
			v *= x
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	b := mat.NewDense(len(y), 1, append([]float64(nil), y...))
	var coef mat.Dense
	if err := qr.SolveTo(&coef, false, b); err != nil {
		return nil, fmt.Errorf("smooth: edge polynomial fit failed: %w", err)
	}

	out := make([]float64, len(at))
	for j, x := range at {
		v := 1.0
		s := 0.0
		for k := 0; k <= order; k++ {
			s += coef.At(k, 0) * v
			v *= x
		}
		out[j] = s
	}
	return out, nil
}
