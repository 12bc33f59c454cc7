package market

import "time"

// Bar is one OHLCV observation. TickVolume is the number of price updates
// the feed saw inside the bar, not traded size.
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	TickVolume int64
}

// Closes extracts the close series from a bar history.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
