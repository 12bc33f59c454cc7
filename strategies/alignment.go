package strategies

import (
	"fmt"

	"github.com/rustyeddy/trendbot/analysis"
)

// Alignment requires every tracked timeframe to agree on a directional
// trend, then gates the entry on the fast RSI being strictly inside the
// 30..70 band in both directions.
type Alignment struct{}

func (Alignment) Name() string { return "alignment" }

func (Alignment) Decide(instrument string, conds []analysis.Condition) Signal {
	if len(conds) == 0 {
		return flat(instrument, "no conditions")
	}
	for _, c := range conds {
		if !c.Valid {
			return flat(instrument, fmt.Sprintf("%s warming up", c.Timeframe))
		}
	}

	fast := conds[0]
	trend := fast.Trend
	if trend == analysis.Sideways {
		return flat(instrument, "fast timeframe sideways")
	}
	for _, c := range conds[1:] {
		if c.Trend != trend {
			return flat(instrument, fmt.Sprintf("%s is %s, fast is %s", c.Timeframe, c.Trend, trend))
		}
	}

	if fast.RSI <= RSIOversold || fast.RSI >= RSIOverbought {
		return flat(instrument, fmt.Sprintf("rsi %.2f outside band", fast.RSI))
	}

	return Signal{
		Instrument: instrument,
		Side:       trend.Side(),
		Reason:     fmt.Sprintf("%d timeframes %s, rsi %.2f", len(conds), trend, fast.RSI),
		Fast:       fast,
	}
}
