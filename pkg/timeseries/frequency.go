package timeseries

import (
	"time"

	"github.com/aouyang1-labs/forecastcore/pkg/errkit"
)

// InferFrequency returns the modal positive time delta between consecutive
// timestamps. With tolerance > 0, deltas within +-tolerance of the modal
// delta are treated as equal to it; with tolerance == 0, the spacing must
// be exactly unique (a single distinct delta value) or InferFrequency
// fails with InvalidInput (spec.md §3).
func (ts *TimeSeries) InferFrequency(tolerance time.Duration) (time.Duration, error) {
	n := ts.Len()
	if n < 2 {
		return 0, errkit.New(errkit.InsufficientData, "timeseries: need at least 2 observations to infer frequency")
	}

	deltas := make([]time.Duration, n-1)
	for i := 1; i < n; i++ {
		deltas[i-1] = ts.timestamps[i].Sub(ts.timestamps[i-1])
	}

	if tolerance <= 0 {
		first := deltas[0]
		for _, d := range deltas[1:] {
			if d != first {
				return 0, errkit.New(errkit.InvalidInput, "timeseries: spacing is not unique absent a tolerance")
			}
		}
		return first, nil
	}

	counts := map[time.Duration]int{}
	for _, d := range deltas {
		matched := false
		for existing := range counts {
			if absDuration(d-existing) <= tolerance {
				counts[existing]++
				matched = true
				break
			}
		}
		if !matched {
			counts[d] = 1
		}
	}

	var modal time.Duration
	best := 0
	for d, c := range counts {
		if c > best {
			best = c
			modal = d
		}
	}
	return modal, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
