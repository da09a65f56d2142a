package numeric

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// PolynomialRootsOutsideUnitDisk reports whether every root of
// coeffs[0] + coeffs[1]*z + ... + coeffs[n]*z^n lies strictly outside the
// unit disk (modulus > 1), the stationarity/invertibility test ARIMA needs
// (spec.md §4.4: "reject coefficient vectors whose characteristic
// polynomials have roots inside the unit circle"). An empty or
// constant-only polynomial (degree 0) is trivially outside (vacuously
// true).
func PolynomialRootsOutsideUnitDisk(coeffs []float64) bool {
	n := len(coeffs) - 1
	for n > 0 && coeffs[n] == 0 {
		n--
	}
	if n <= 0 {
		return true
	}

	companion := mat.NewDense(n, n, nil)
	lead := coeffs[n]
	for i := 0; i < n; i++ {
		companion.Set(i, n-1, -coeffs[i]/lead)
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	ok := eig.Factorize(companion, mat.EigenNone)
	if !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) <= 1.0+1e-6 {
			return false
		}
	}
	return true
}

// ConvolvePolynomials multiplies two polynomials given in ascending
// coefficient order (a[0] + a[1]z + ...), used to build ARIMA's combined
// (non-seasonal x seasonal) AR/MA polynomials (spec.md §4.4).
func ConvolvePolynomials(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}
