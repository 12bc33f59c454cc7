package indicators

// RSI computes the relative strength index with simple (not Wilder)
// rolling means of gains and losses over period rows.
//
// Row 0 has no previous close and contributes a zero gain and loss, the
// same convention OBV uses, so the first defined value is at row
// period-1.
//
// When the average loss is zero the ratio is unbounded: the result
// saturates to 100 if there was any gain and is 50 for a perfectly flat
// window.
func RSI(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	for i := period - 1; i < len(closes); i++ {
		out[i] = rsiValue(avgGain[i], avgLoss[i])
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
