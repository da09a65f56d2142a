package mfles

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aouyang1-labs/forecastcore/pkg/numeric"
)

// fourierDesign builds the n x (2*order) design matrix of sin/cos harmonics
// at 1-indexed time steps tStart..tStart+n-1, matching the (n+tau) time
// convention spec.md §4.8's Fourier projection formula uses.
func fourierDesign(tStart, n, period, order int) *mat.Dense {
	data := make([]float64, n*2*order)
	for row := 0; row < n; row++ {
		tIdx := float64(tStart + row)
		for i := 1; i <= order; i++ {
			angle := 2 * math.Pi * float64(i) * tIdx / float64(period)
			data[row*2*order+2*(i-1)] = math.Sin(angle)
			data[row*2*order+2*(i-1)+1] = math.Cos(angle)
		}
	}
	return mat.NewDense(n, 2*order, data)
}

// fourierFit fits a K-harmonic Fourier series of the given order to
// residual at the given seasonal period, optionally weighted (spec.md
// §4.8's "time-increasing seasonality weights"), returning the (a_i, b_i)
// coefficient pairs and the in-sample fit.
func fourierFit(residual []float64, period, order int, weights []float64) (coeffs [][2]float64, fitted []float64, err error) {
	n := len(residual)
	design := fourierDesign(1, n, period, order)

	var beta []float64
	if weights == nil {
		beta, err = numeric.OLS(design, residual)
	} else {
		beta, err = weightedOLS(design, residual, weights)
	}
	if err != nil {
		return nil, nil, err
	}

	coeffs = make([][2]float64, order)
	for i := 0; i < order; i++ {
		coeffs[i] = [2]float64{beta[2*i], beta[2*i+1]}
	}
	fitted = numeric.Predict(design, beta)
	return coeffs, fitted, nil
}

// weightedOLS solves a weighted least-squares fit via the standard
// sqrt(weight)-row-scaling reduction to ordinary least squares.
func weightedOLS(x *mat.Dense, y, weights []float64) ([]float64, error) {
	rows, cols := x.Dims()
	scaledData := make([]float64, rows*cols)
	scaledY := make([]float64, rows)
	for r := 0; r < rows; r++ {
		w := math.Sqrt(weights[r])
		for c := 0; c < cols; c++ {
			scaledData[r*cols+c] = x.At(r, c) * w
		}
		scaledY[r] = y[r] * w
	}
	return numeric.OLS(mat.NewDense(rows, cols, scaledData), scaledY)
}

// projectFourier evaluates the accumulated Fourier coefficients at horizon
// offset tau (1-indexed), per spec.md §4.8: Σ_i a_i·sin(2π·i·(n+τ)/k) +
// b_i·cos(2π·i·(n+τ)/k).
func projectFourier(coeffs [][2]float64, period, n, tau int) float64 {
	tIdx := float64(n + tau)
	var sum float64
	for i, c := range coeffs {
		order := i + 1
		angle := 2 * math.Pi * float64(order) * tIdx / float64(period)
		sum += c[0]*math.Sin(angle) + c[1]*math.Cos(angle)
	}
	return sum
}
