package indicators

// SMA returns the simple moving average of the last window values at each
// row. The first window-1 rows are NaN.
//
// Every window is summed on its own so rounding never carries from one row
// to the next, and a window of one repeated value averages to exactly that
// value. Equal averages over different windows must compare equal.
func SMA(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		sum, same := 0.0, true
		for _, v := range w {
			sum += v
			same = same && v == w[0]
		}
		if same {
			out[i] = w[0]
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}
