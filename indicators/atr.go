package indicators

import (
	"math"

	"github.com/rustyeddy/trendbot/market"
)

// ATR is the rolling mean of the true range over period bars. The first
// bar has no previous close and therefore no true range, so the first
// defined value is at row period.
func ATR(bars []market.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 || len(bars) < period+1 {
		return out
	}

	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		tr[i] = trueRange(bars[i], bars[i-1])
	}

	sum := 0.0
	for i := 1; i < len(bars); i++ {
		sum += tr[i]
		if i > period {
			sum -= tr[i-period]
		}
		if i >= period {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// trueRange calculates the True Range for a bar given the previous bar
func trueRange(current, previous market.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}
