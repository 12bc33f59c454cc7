package indicators

import "github.com/rustyeddy/trendbot/market"

// OBV is the cumulative sum of sign(close change) × tick volume, starting
// at zero on the first bar.
func OBV(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		v := float64(bars[i].TickVolume)
		switch d := bars[i].Close - bars[i-1].Close; {
		case d > 0:
			out[i] = out[i-1] + v
		case d < 0:
			out[i] = out[i-1] - v
		default:
			out[i] = out[i-1]
		}
	}
	return out
}
