package timeseries

import "github.com/aouyang1-labs/forecastcore/pkg/errkit"

// Interpolated returns a new TimeSeries with non-finite values replaced by
// linear interpolation between the nearest finite neighbors in the same
// dimension. A non-finite run at either edge (no finite neighbor on one
// side) is held at the nearest available finite value rather than left
// unresolved (ForwardFill, by contrast, drops a leading non-finite run).
func (ts *TimeSeries) Interpolated() (*TimeSeries, error) {
	d := ts.Dim()
	n := ts.Len()
	if n == 0 {
		return nil, errkit.New(errkit.InsufficientData, "timeseries: cannot interpolate an empty series")
	}

	values := make([][]float64, d)
	for i, dim := range ts.values {
		values[i] = interpolateSeries(dim)
	}
	return ts.replaceValues(values), nil
}

func interpolateSeries(series []float64) []float64 {
	n := len(series)
	out := append([]float64(nil), series...)

	finiteIdx := make([]int, 0, n)
	for i, v := range out {
		if isFinite(v) {
			finiteIdx = append(finiteIdx, i)
		}
	}
	if len(finiteIdx) == 0 {
		return out
	}

	// Fill before the first finite point and after the last with the
	// nearest finite value (edge hold).
	for i := 0; i < finiteIdx[0]; i++ {
		out[i] = out[finiteIdx[0]]
	}
	for i := finiteIdx[len(finiteIdx)-1] + 1; i < n; i++ {
		out[i] = out[finiteIdx[len(finiteIdx)-1]]
	}

	for k := 0; k < len(finiteIdx)-1; k++ {
		lo, hi := finiteIdx[k], finiteIdx[k+1]
		if hi-lo <= 1 {
			continue
		}
		span := float64(hi - lo)
		loVal, hiVal := out[lo], out[hi]
		for i := lo + 1; i < hi; i++ {
			frac := float64(i-lo) / span
			out[i] = loVal + frac*(hiVal-loVal)
		}
	}
	return out
}
