package strategies

import (
	"fmt"

	"github.com/rustyeddy/trendbot/analysis"
	"github.com/rustyeddy/trendbot/market"
)

// SingleTimeframe only looks at the fast timeframe. Its RSI gate is
// one-sided: buys need RSI < 70, sells need RSI > 30.
type SingleTimeframe struct{}

func (SingleTimeframe) Name() string { return "single" }

func (SingleTimeframe) Decide(instrument string, conds []analysis.Condition) Signal {
	if len(conds) == 0 {
		return flat(instrument, "no conditions")
	}
	fast := conds[0]
	if !fast.Valid {
		return flat(instrument, fmt.Sprintf("%s warming up", fast.Timeframe))
	}

	var side market.Side
	switch {
	case fast.Trend == analysis.Uptrend && fast.RSI < RSIOverbought:
		side = market.Long
	case fast.Trend == analysis.Downtrend && fast.RSI > RSIOversold:
		side = market.Short
	default:
		return flat(instrument, fmt.Sprintf("%s %s rsi %.2f", fast.Timeframe, fast.Trend, fast.RSI))
	}

	return Signal{
		Instrument: instrument,
		Side:       side,
		Reason:     fmt.Sprintf("%s %s, rsi %.2f", fast.Timeframe, fast.Trend, fast.RSI),
		Fast:       fast,
	}
}
