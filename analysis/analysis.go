// Package analysis reduces the latest indicator row of a timeframe into a
// categorical market condition.
package analysis

import (
	"fmt"
	"math"

	"github.com/rustyeddy/trendbot/indicators"
	"github.com/rustyeddy/trendbot/market"
)

type Trend int

const (
	Sideways Trend = iota
	Uptrend
	Downtrend
)

func (t Trend) String() string {
	switch t {
	case Uptrend:
		return "uptrend"
	case Downtrend:
		return "downtrend"
	default:
		return "sideways"
	}
}

// Side maps a directional trend onto a trade side; Sideways is Flat.
func (t Trend) Side() market.Side {
	switch t {
	case Uptrend:
		return market.Long
	case Downtrend:
		return market.Short
	default:
		return market.Flat
	}
}

// Condition is the state of one instrument on one timeframe.
type Condition struct {
	Timeframe market.Timeframe
	Trend     Trend
	RSI       float64
	ATR       float64

	// Valid is false when any input indicator was still warming up.
	// Invalid conditions must not produce signals.
	Valid bool
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s rsi=%.2f atr=%.5f valid=%t", c.Timeframe, c.Trend, c.RSI, c.ATR, c.Valid)
}

// Classify applies the strict nested moving-average ordering. Any tie is
// Sideways.
func Classify(tf market.Timeframe, row indicators.Snapshot) Condition {
	c := Condition{
		Timeframe: tf,
		Trend:     Sideways,
		RSI:       row.RSI,
		ATR:       row.ATR,
		Valid:     defined(row.SMAFast, row.SMAMedium, row.SMASlow, row.RSI, row.ATR),
	}
	if !c.Valid {
		return c
	}

	switch {
	case row.SMAFast > row.SMAMedium && row.SMAMedium > row.SMASlow:
		c.Trend = Uptrend
	case row.SMAFast < row.SMAMedium && row.SMAMedium < row.SMASlow:
		c.Trend = Downtrend
	}
	return c
}

func defined(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
