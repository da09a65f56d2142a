package numeric

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// OLS solves the ordinary-least-squares problem y = X*beta + e via QR
// decomposition, returning the coefficient vector beta. X must have one row
// per observation and one column per regressor; rows(X) must equal len(y).
// Used by MFLES's OLS trend and Fourier boosting steps and by Theta's trend
// line, generalizing the teacher's decomposition.go
// linearRegression (a hand-rolled two-variable normal-equations solve) to an
// arbitrary number of regressors via gonum.
func OLS(x *mat.Dense, y []float64) ([]float64, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, errDimMismatch("OLS", rows, len(y))
	}
	yVec := mat.NewVecDense(len(y), y)

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.VecDense
	err := qr.SolveVecTo(&beta, false, yVec)
	if err != nil {
		return nil, err
	}
	out := make([]float64, cols)
	for i := 0; i < cols; i++ {
		out[i] = beta.AtVec(i)
	}
	return out, nil
}

// Predict evaluates X*beta for each row of X.
func Predict(x *mat.Dense, beta []float64) []float64 {
	rows, cols := x.Dims()
	b := mat.NewVecDense(cols, beta)
	var yHat mat.VecDense
	yHat.MulVec(x, b)
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = yHat.AtVec(i)
	}
	return out
}

// DesignMatrix builds an n x (1+len(cols)) design matrix: an intercept
// column of ones followed by one column per entry in cols.
func DesignMatrix(n int, cols ...[]float64) *mat.Dense {
	p := 1 + len(cols)
	data := make([]float64, n*p)
	for i := 0; i < n; i++ {
		data[i*p] = 1
		for j, c := range cols {
			data[i*p+1+j] = c[i]
		}
	}
	return mat.NewDense(n, p, data)
}

// CholeskySolve solves A*x = b for symmetric positive-definite A. No model
// in the module calls it; only this package's tests exercise it.
func CholeskySolve(a *mat.SymDense, b []float64) ([]float64, error) {
	var chol mat.Cholesky
	ok := chol.Factorize(a)
	if !ok {
		return nil, errNotPosDef("CholeskySolve")
	}
	bVec := mat.NewVecDense(len(b), b)
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, bVec); err != nil {
		return nil, err
	}
	out := make([]float64, len(b))
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

func errDimMismatch(op string, rows, labels int) error {
	return fmt.Errorf("%s: row count %d does not match label count %d", op, rows, labels)
}

func errNotPosDef(op string) error {
	return fmt.Errorf("%s: matrix is not positive-definite", op)
}
